// Package handler implements the console's HTTP surface: server-rendered
// pages for operators plus a small JSON API. Handlers are methods on Server
// and are split into files by page (content.go, bookings.go, etc.).
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/middleware"
	"github.com/mylankajourney/admin-console/internal/service"
	"github.com/mylankajourney/admin-console/internal/session"
)

// SessionGate is the part of session.Gate the handlers drive.
type SessionGate interface {
	middleware.SessionResolver
	Login(ctx context.Context, token, email, password string) (session.Session, error)
	Logout(ctx context.Context, token string)
	Expire(ctx context.Context, token string)
}

// ContentServicer defines the content operations the CRUD pages depend on.
// Defining the interface here (in the consumer package) lets handler tests
// swap the implementation without touching the backend.
type ContentServicer interface {
	Kinds() []catalog.Kind
	Mount(ctx context.Context, op service.Operator, kind string) (*crud.Screen, error)
	Ensure(ctx context.Context, op service.Operator, kind string) (*crud.Screen, error)
	Find(ctx context.Context, op service.Operator, kind string, id domain.ID) (domain.Record, *crud.Screen, error)
	OpenCreate(ctx context.Context, op service.Operator, kind string) (*crud.Screen, error)
	OpenEdit(ctx context.Context, op service.Operator, kind string, id domain.ID) (*crud.Screen, error)
	Submit(ctx context.Context, op service.Operator, kind string, id domain.ID, sub service.Submission) (domain.Record, *crud.Screen, error)
	OpenDelete(ctx context.Context, op service.Operator, kind string, id domain.ID) (*crud.Screen, error)
	Close(op service.Operator, kind string) error
	ConfirmDelete(ctx context.Context, op service.Operator, kind string, id domain.ID) (*crud.Screen, error)
}

// BookingServicer defines the read-only bookings operations.
type BookingServicer interface {
	List(ctx context.Context, q service.BookingQuery) (service.BookingList, error)
	Get(ctx context.Context, id string) (domain.Booking, error)
}

// DashboardServicer serves the home page summary.
type DashboardServicer interface {
	Summary(ctx context.Context) (domain.Dashboard, error)
}

// AuditServicer lists the audit trail.
type AuditServicer interface {
	List(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) (service.AuditPage, error)
}

// Deps are the Server's collaborators.
type Deps struct {
	Gate      SessionGate
	Content   ContentServicer
	Bookings  BookingServicer
	Dashboard DashboardServicer
	Audit     AuditServicer
	Cookie    middleware.CookieConfig
	Log       *slog.Logger
}

// Server holds every handler's dependencies.
type Server struct {
	gate      SessionGate
	content   ContentServicer
	bookings  BookingServicer
	dashboard DashboardServicer
	audit     AuditServicer
	cookie    middleware.CookieConfig
	log       *slog.Logger
	views     *renderer
}

// NewServer constructs the Server and parses the page templates.
func NewServer(d Deps) (*Server, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("handler.NewServer: %w", err)
	}
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		gate:      d.Gate,
		content:   d.Content,
		bookings:  d.Bookings,
		dashboard: d.Dashboard,
		audit:     d.Audit,
		cookie:    d.Cookie,
		log:       log,
		views:     views,
	}, nil
}

// Routes returns the console's router. Cross-cutting middleware (request
// logging, CSRF, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/openapi.yaml", s.openAPI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionLoader(s.gate, s.cookie, s.log))
		r.Get("/login", s.loginPage)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin("/login"))
			r.Get("/", s.home)
			r.Route("/content/{kind}", func(r chi.Router) {
				r.Get("/", s.contentList)
				r.Post("/", s.contentCreate)
				r.Get("/new", s.contentNew)
				r.Post("/close", s.contentClose)
				r.Get("/{id}", s.contentShow)
				r.Post("/{id}", s.contentUpdate)
				r.Get("/{id}/edit", s.contentEdit)
				r.Get("/{id}/delete", s.contentDeletePrompt)
				r.Post("/{id}/delete", s.contentDelete)
			})
			r.Get("/bookings", s.bookingList)
			r.Get("/bookings/{id}", s.bookingShow)
			r.Get("/audit", s.auditLog)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireLoginJSON)
			r.Get("/content/{kind}", s.apiContent)
		})
	})
	return r
}

// operator identifies the signed-in operator behind r.
func operator(r *http.Request) service.Operator {
	sess, _ := session.FromContext(r.Context())
	return service.Operator{Token: sess.Token, Email: sess.Email}
}
