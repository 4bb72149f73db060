// Package session tracks whether each browser talking to the console is
// signed in to the backend, and holds the backend credential on its behalf.
package session

import (
	"context"
	"time"

	"github.com/mylankajourney/admin-console/internal/backend"
)

// State is where a session stands in the sign-in lifecycle.
//
//	Checking → Authenticated | Unauthenticated
type State int

const (
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Session is one browser's sign-in state. Token is the value of the
// console's session cookie.
type Session struct {
	Token      string             `json:"token"`
	State      State              `json:"state"`
	Email      string             `json:"email,omitempty"`
	Credential backend.Credential `json:"credential"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Authenticated reports whether the session may reach the console.
func (s Session) Authenticated() bool { return s.State == StateAuthenticated }

type sessionKey struct{}

// NewContext returns ctx carrying s and its backend credential.
func NewContext(ctx context.Context, s Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, s)
	return backend.WithCredential(ctx, s.Credential)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
