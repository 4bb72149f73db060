package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFCookie names the cookie holding the masked CSRF secret.
const CSRFCookie = "mlj_csrf"

// NewCSRF returns a middleware that rejects state-changing requests without
// a valid CSRF token. Forms carry the token via csrf.TemplateField; the JSON
// API reads it from the X-CSRF-Token header. When secure is false the
// console is served over plain HTTP and the Referer check is skipped.
func NewCSRF(key []byte, secure bool, log *slog.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName(CSRFCookie),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.WarnContext(r.Context(), "csrf check failed",
				"method", r.Method,
				"path", r.URL.Path,
				"reason", csrf.FailureReason(r),
			)
			http.Error(w, "Your form expired. Reload the page and try again.", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
