package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/service"
)

type bookingsView struct {
	Query     service.BookingQuery
	List      service.BookingList
	ExportURL string
}

func bookingQuery(q url.Values) service.BookingQuery {
	bq := service.BookingQuery{
		Search:  q.Get("q"),
		Country: q.Get("country"),
		Status:  q.Get("status"),
		Sort:    q.Get("sort"),
	}
	if bq.Sort != service.SortOldest {
		bq.Sort = service.SortLatest
	}
	return bq
}

// bookingList handles GET /bookings. With format=csv it downloads the
// visible bookings instead.
func (s *Server) bookingList(w http.ResponseWriter, r *http.Request) {
	q := bookingQuery(r.URL.Query())
	list, err := s.bookings.List(r.Context(), q)
	if err != nil && errors.Is(err, domain.ErrUnauthenticated) {
		s.expire(w, r)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		if err != nil {
			s.fail(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := service.WriteCSV(&buf, list.Bookings); err != nil {
			s.fail(w, r, fmt.Errorf("handler.bookingList: %w", err))
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="bookings-%s.csv"`, time.Now().UTC().Format("2006-01-02")))
		_, _ = buf.WriteTo(w)
		return
	}

	status, banner := http.StatusOK, ""
	if err != nil {
		status = statusFor(err)
		banner = "Bookings could not be loaded. " + errMessage(err)
		list = service.BookingList{}
	}
	export := r.URL.Query()
	export.Set("format", "csv")
	s.render(w, r, status, "bookings", page{
		Title:   "Bookings",
		Section: "bookings",
		Banner:  banner,
		Data:    bookingsView{Query: q, List: list, ExportURL: withQuery("/bookings", export)},
	})
}

// bookingShow handles GET /bookings/{id}.
func (s *Server) bookingShow(w http.ResponseWriter, r *http.Request) {
	b, err := s.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "booking", page{
		Title:   b.FullName(),
		Section: "bookings",
		Data:    b,
	})
}
