package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mylankajourney/admin-console/internal/session"
)

// SessionCookie names the cookie carrying the console session token.
const SessionCookie = "mlj_session"

// SessionResolver turns a session cookie value into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (session.Session, error)
}

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// SetSessionCookie writes token as the session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NewSessionLoader returns a middleware that resolves the request's session
// and stores it in the context (see session.FromContext). A new or rotated
// token is written back as the session cookie.
func NewSessionLoader(gate SessionResolver, cfg CookieConfig, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
			s, err := gate.Resolve(r.Context(), token)
			if err != nil {
				log.ErrorContext(r.Context(), "resolving session failed", "error", err)
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			if s.Token != token {
				SetSessionCookie(w, s.Token, cfg)
			}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

// RequireLogin redirects requests without an authenticated session to
// loginPath, remembering where the operator was going.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := session.FromContext(r.Context()); ok && s.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			target := loginPath
			if r.Method == http.MethodGet && r.URL.Path != "/" {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// RequireLoginJSON answers requests without an authenticated session with
// 401 and a JSON error body.
func RequireLoginJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := session.FromContext(r.Context()); ok && s.Authenticated() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "unauthenticated", "message": "sign in required"},
		})
	})
}
