package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mylankajourney/admin-console/internal/backend"
	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/handler"
	"github.com/mylankajourney/admin-console/internal/middleware"
	"github.com/mylankajourney/admin-console/internal/service"
	"github.com/mylankajourney/admin-console/internal/session"
)

// mockAuth is a hand-written test double for session.Authenticator.
type mockAuth struct {
	login  func(ctx context.Context, email, password string) (backend.Credential, error)
	logout func(ctx context.Context) error
	verify func(ctx context.Context) error
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (backend.Credential, error) {
	return m.login(ctx, email, password)
}
func (m *mockAuth) Logout(ctx context.Context) error { return m.logout(ctx) }
func (m *mockAuth) Verify(ctx context.Context) error { return m.verify(ctx) }

var _ session.Authenticator = (*mockAuth)(nil)

// fakeResource is an in-memory crud.Resource that counts list calls.
type fakeResource struct {
	mu      sync.Mutex
	records []domain.Record
	lists   int
	listErr error
	saveErr error
	nextID  int
	created []domain.Payload
	updated map[domain.ID]map[string]any
	deleted []domain.ID
}

var _ crud.Resource = (*fakeResource)(nil)

func (f *fakeResource) List(context.Context) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Record, len(f.records))
	for i, r := range f.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeResource) Create(_ context.Context, p domain.Payload) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return domain.Record{}, f.saveErr
	}
	f.created = append(f.created, p)
	f.nextID++
	fields := make(map[string]any, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	r := domain.Record{ID: domain.ID(fmt.Sprint(100 + f.nextID)), Fields: fields}
	f.records = append(f.records, r)
	return r.Clone(), nil
}

func (f *fakeResource) Update(_ context.Context, id domain.ID, fields map[string]any) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return domain.Record{}, f.saveErr
	}
	if f.updated == nil {
		f.updated = map[domain.ID]map[string]any{}
	}
	f.updated[id] = fields
	return domain.Record{ID: id, Fields: fields}, nil
}

func (f *fakeResource) Delete(_ context.Context, id domain.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeResource) Lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

type fakeResolver map[string]*fakeResource

func (m fakeResolver) Resource(k catalog.Kind) crud.Resource { return m[k.Name] }

// mockBookings is a hand-written test double for handler.BookingServicer.
type mockBookings struct {
	list func(ctx context.Context, q service.BookingQuery) (service.BookingList, error)
	get  func(ctx context.Context, id string) (domain.Booking, error)
}

func (m *mockBookings) List(ctx context.Context, q service.BookingQuery) (service.BookingList, error) {
	return m.list(ctx, q)
}
func (m *mockBookings) Get(ctx context.Context, id string) (domain.Booking, error) {
	return m.get(ctx, id)
}

var _ handler.BookingServicer = (*mockBookings)(nil)

// mockDashboard is a hand-written test double for handler.DashboardServicer.
type mockDashboard struct {
	summary func(ctx context.Context) (domain.Dashboard, error)
}

func (m *mockDashboard) Summary(ctx context.Context) (domain.Dashboard, error) { return m.summary(ctx) }

var _ handler.DashboardServicer = (*mockDashboard)(nil)

// mockAudit is a hand-written test double for handler.AuditServicer.
type mockAudit struct {
	list func(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) (service.AuditPage, error)
}

func (m *mockAudit) List(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) (service.AuditPage, error) {
	return m.list(ctx, f, p)
}

var _ handler.AuditServicer = (*mockAudit)(nil)

// recordingAudit captures content audit entries.
type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, e domain.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) Entries() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}

// env is a fully wired console against in-memory fakes.
type env struct {
	h         http.Handler
	gate      *session.Gate
	store     *session.MemoryStore
	res       fakeResolver
	trail     *recordingAudit
	bookings  *mockBookings
	dashboard *mockDashboard
	audit     *mockAudit
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func rec(t *testing.T, js string) domain.Record {
	t.Helper()
	var r domain.Record
	require.NoError(t, json.Unmarshal([]byte(js), &r))
	return r
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	auth := &mockAuth{
		login: func(_ context.Context, email, password string) (backend.Credential, error) {
			if password != "secret" {
				return backend.Credential{}, &backend.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials."}
			}
			return backend.Credential{Token: "tok-" + email}, nil
		},
		logout: func(context.Context) error { return nil },
		verify: func(ctx context.Context) error {
			if cred, ok := backend.CredentialFrom(ctx); ok && !cred.Empty() {
				return nil
			}
			return &backend.APIError{Status: http.StatusUnauthorized}
		},
	}

	e := &env{
		store: session.NewMemoryStore(),
		res: fakeResolver{
			"countries": {records: []domain.Record{
				rec(t, `{"id":1,"name":"Sri Lanka","slug":"sri-lanka","description":"**Pearl** of the Indian Ocean"}`),
				rec(t, `{"id":2,"name":"Maldives","slug":"maldives"}`),
			}},
			"locations":           {records: []domain.Record{rec(t, `{"id":20,"name":"Ella","slug":"ella"}`)}},
			"activity-categories": {records: []domain.Record{rec(t, `{"id":10,"name":"Adventure","slug":"adventure"}`)}},
			"gallery-cities":      {},
			"activities": {records: []domain.Record{
				rec(t, `{"id":5,"title":"Surf Lesson","description":"Arugam Bay","price":30,"activity_category_id":10,"location_id":20}`),
				rec(t, `{"id":6,"title":"Nine Arch Hike","description":"Ella","price":0,"activityCategory":{"id":10},"location":{"id":99}}`),
			}},
		},
		trail:     &recordingAudit{},
		bookings:  &mockBookings{},
		dashboard: &mockDashboard{summary: func(context.Context) (domain.Dashboard, error) { return domain.Dashboard{}, nil }},
		audit:     &mockAudit{},
	}
	ws := service.NewWorkspaces(cat)
	e.gate = session.NewGate(e.store, auth, time.Hour, discardLogger(), session.OnEnd(ws.Drop))

	srv, err := handler.NewServer(handler.Deps{
		Gate:      e.gate,
		Content:   service.NewContentService(cat, e.res, ws, e.trail, discardLogger()),
		Bookings:  e.bookings,
		Dashboard: e.dashboard,
		Audit:     e.audit,
		Cookie:    middleware.CookieConfig{TTL: time.Hour},
		Log:       discardLogger(),
	})
	require.NoError(t, err)
	e.h = srv.Routes()
	return e
}

// signIn starts an authenticated session and returns its cookie.
func (e *env) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	s, err := e.gate.Login(context.Background(), "", "admin@lanka.travel", "secret")
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookie, Value: s.Token}
}

func (e *env) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	return w
}

func (e *env) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func (e *env) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, cookie)
}
