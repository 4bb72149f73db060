package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// ContentList is the body of GET /api/content/{kind}.
type ContentList struct {
	Data  []domain.Record `json:"data"`
	Shown int             `json:"shown"`
	Total int             `json:"total"`
}

// apiContent handles GET /api/content/{kind}: the visible records of the
// caller's mounted view, mounting it first if idle. Supports ?q= and one
// query parameter per categorical filter field.
func (s *Server) apiContent(w http.ResponseWriter, r *http.Request) {
	scr, err := s.content.Ensure(r.Context(), operator(r), chi.URLParam(r, "kind"))
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	q := r.URL.Query()
	query := crud.Query{Search: q.Get("q"), Filters: map[string]string{}}
	for _, f := range scr.Kind().Filters {
		query.Filters[f.Field] = q.Get(f.Field)
	}
	visible := scr.View.Visible(query)
	writeJSON(w, http.StatusOK, ContentList{Data: visible, Shown: len(visible), Total: scr.View.Len()})
}
