package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mylankajourney/admin-console/internal/backend"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// Authenticator is the slice of the backend the gate needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (backend.Credential, error)
	Logout(ctx context.Context) error
	Verify(ctx context.Context) error
}

// Gate owns every session's state transitions. Nothing else writes to the
// store.
type Gate struct {
	store Store
	auth  Authenticator
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
	onEnd []func(token string)
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// OnEnd registers fn to run whenever a session token stops being valid
// (logout, expiry, rotation at login, or a token the store no longer knows).
func OnEnd(fn func(token string)) GateOption {
	return func(g *Gate) { g.onEnd = append(g.onEnd, fn) }
}

// NewGate returns a gate persisting to store with the given session TTL.
func NewGate(store Store, auth Authenticator, ttl time.Duration, log *slog.Logger, opts ...GateOption) *Gate {
	g := &Gate{store: store, auth: auth, ttl: ttl, log: log, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve returns the session for token. A session still Checking is
// initialised. An unknown or expired token ends (its OnEnd hooks run) and the
// caller gets a fresh Unauthenticated session. Only Authenticated sessions
// are ever stored, so anonymous traffic costs no store space.
func (g *Gate) Resolve(ctx context.Context, token string) (Session, error) {
	if token != "" {
		s, err := g.store.Get(ctx, token)
		switch {
		case err == nil:
			if s.State == StateChecking {
				return g.Init(ctx, s)
			}
			return s, nil
		case !errors.Is(err, domain.ErrNotFound):
			return Session{}, fmt.Errorf("session.Gate.Resolve: %w", err)
		}
		g.notifyEnd(token)
	}
	return g.anonymous(), nil
}

func (g *Gate) anonymous() Session {
	return Session{Token: uuid.NewString(), State: StateUnauthenticated, CreatedAt: g.now().UTC()}
}

// Init checks the session's credential with the backend. Success means
// Authenticated and the session is saved; any failure means Unauthenticated
// and the stored session, if any, ends.
func (g *Gate) Init(ctx context.Context, s Session) (Session, error) {
	s.State = StateUnauthenticated
	if !s.Credential.Empty() {
		if err := g.auth.Verify(backend.WithCredential(ctx, s.Credential)); err == nil {
			s.State = StateAuthenticated
		} else {
			g.log.DebugContext(ctx, "session verification failed", "error", err)
		}
	}
	if !s.Authenticated() {
		s.Credential = backend.Credential{}
		s.Email = ""
		if s.Token != "" {
			g.end(ctx, s.Token)
		}
		return s, nil
	}
	if err := g.store.Save(ctx, s, g.ttl); err != nil {
		return Session{}, fmt.Errorf("session.Gate.Init: %w", err)
	}
	return s, nil
}

// Login checks the credentials with the backend. On success the session is
// replaced by a fresh Authenticated one under a new token; on failure the
// original session is left Unauthenticated.
func (g *Gate) Login(ctx context.Context, token, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "Email is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if err := domain.NewValidationError(fields); err != nil {
		return Session{}, err
	}

	cred, err := g.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("session.Gate.Login: %w", err)
	}

	s := Session{
		Token:      uuid.NewString(),
		State:      StateAuthenticated,
		Email:      email,
		Credential: cred,
		CreatedAt:  g.now().UTC(),
	}
	if err := g.store.Save(ctx, s, g.ttl); err != nil {
		return Session{}, fmt.Errorf("session.Gate.Login: %w", err)
	}
	if token != "" {
		g.end(ctx, token)
	}
	g.log.InfoContext(ctx, "operator signed in", "email", email)
	return s, nil
}

// Logout ends the session. The backend logout is best effort: if it fails
// the session still ends locally.
func (g *Gate) Logout(ctx context.Context, token string) {
	s, err := g.store.Get(ctx, token)
	if err == nil && !s.Credential.Empty() {
		if lerr := g.auth.Logout(backend.WithCredential(ctx, s.Credential)); lerr != nil {
			g.log.WarnContext(ctx, "backend logout failed", "email", s.Email, "error", lerr)
		}
	}
	g.end(ctx, token)
}

// Expire ends the session after the backend rejected its credential
// mid-session. The browser continues as a fresh Unauthenticated session.
func (g *Gate) Expire(ctx context.Context, token string) {
	if s, err := g.store.Get(ctx, token); err == nil {
		g.log.InfoContext(ctx, "session expired", "email", s.Email)
	}
	g.end(ctx, token)
}

func (g *Gate) end(ctx context.Context, token string) {
	if err := g.store.Delete(ctx, token); err != nil {
		g.log.WarnContext(ctx, "deleting session failed", "error", err)
	}
	g.notifyEnd(token)
}

// Collect evicts sessions the store holds past their expiry and ends them.
// It returns how many were evicted.
func (g *Gate) Collect(ctx context.Context) int {
	sw, ok := g.store.(Sweeper)
	if !ok {
		return 0
	}
	expired := sw.Sweep(g.now())
	for _, token := range expired {
		g.notifyEnd(token)
	}
	if len(expired) > 0 {
		g.log.DebugContext(ctx, "expired sessions evicted", "count", len(expired))
	}
	return len(expired)
}

func (g *Gate) notifyEnd(token string) {
	for _, fn := range g.onEnd {
		fn(token)
	}
}
