package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mylankajourney/admin-console/internal/backend"
	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/middleware"
	"github.com/mylankajourney/admin-console/internal/session"
)

type loginView struct {
	Email  string
	Next   string
	Errors map[string]string
}

// loginPage handles GET /login.
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok && sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", page{
		Title: "Sign in",
		Data:  loginView{Next: safeNext(r.URL.Query().Get("next"))},
	})
}

// login handles POST /login.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	next := safeNext(r.PostForm.Get("next"))
	sess, _ := session.FromContext(r.Context())

	signedIn, err := s.gate.Login(r.Context(), sess.Token, email, r.PostForm.Get("password"))
	if err != nil {
		status, banner, fields := loginFailure(err)
		if status == http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "sign in failed", "error", err)
		}
		s.render(w, r, status, "login", page{
			Title:  "Sign in",
			Banner: banner,
			Data:   loginView{Email: email, Next: next, Errors: fields},
		})
		return
	}

	middleware.SetSessionCookie(w, signedIn.Token, s.cookie)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// loginFailure maps a failed sign-in to a status, banner and field errors.
func loginFailure(err error) (int, string, map[string]string) {
	var (
		verr   *domain.ValidationError
		apiErr *backend.APIError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "", verr.Fields
	case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
		msg := apiErr.Message
		if msg == "" {
			msg = "Invalid email or password."
		}
		return http.StatusUnauthorized, msg, apiErr.Fields
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "The server could not be reached. Please try again.", nil
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again.", nil
}

// logout handles POST /logout.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		s.gate.Logout(r.Context(), sess.Token)
	}
	middleware.ClearSessionCookie(w, s.cookie)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
