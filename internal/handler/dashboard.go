package handler

import (
	"errors"
	"net/http"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// home handles GET /, the dashboard. A failed summary still renders, with
// zeroed metrics and a banner.
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Summary(r.Context())
	banner := ""
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			s.expire(w, r)
			return
		}
		banner = "Dashboard data could not be loaded. " + errMessage(err)
	}
	s.render(w, r, http.StatusOK, "dashboard", page{Title: "Dashboard", Section: "dashboard", Banner: banner, Data: d})
}
