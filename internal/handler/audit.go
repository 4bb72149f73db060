package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/service"
)

type auditView struct {
	Filter  domain.AuditFilter
	Actions []domain.AuditAction
	Page    service.AuditPage
	PrevURL string
	NextURL string
}

func optionalInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// auditLog handles GET /audit.
// Supports ?q=, ?action=, ?actor=, ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) auditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.AuditFilter{Search: q.Get("q"), Action: q.Get("action"), Actor: q.Get("actor")}
	params := domain.NewPaginationParams(optionalInt(q.Get("page")), optionalInt(q.Get("limit")))

	result, err := s.audit.List(r.Context(), f, params)
	status, banner := http.StatusOK, ""
	if err != nil {
		s.log.ErrorContext(r.Context(), "listing audit entries failed", "error", err)
		status = http.StatusInternalServerError
		banner = "The audit log could not be loaded."
		result = service.AuditPage{Page: params.Page, Limit: params.Limit, TotalPages: 1}
	}

	view := auditView{
		Filter:  f,
		Actions: []domain.AuditAction{domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete},
		Page:    result,
	}
	if result.Page > 1 {
		view.PrevURL = pageURL(q, result.Page-1)
	}
	if result.Page < result.TotalPages {
		view.NextURL = pageURL(q, result.Page+1)
	}
	s.render(w, r, status, "audit", page{Title: "Audit Log", Section: "audit", Banner: banner, Data: view})
}

func pageURL(q url.Values, n int) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	next.Set("page", strconv.Itoa(n))
	return withQuery("/audit", next)
}
