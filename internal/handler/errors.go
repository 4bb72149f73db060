package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mylankajourney/admin-console/internal/backend"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/session"
)

// ErrorResponse is the JSON API's error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, crud.ErrConfirmNotOpen), errors.Is(err, crud.ErrFormNotOpen), errors.Is(err, domain.ErrStale):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func codeFor(status int) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "backend_unavailable"
	case http.StatusUnauthorized:
		return "unauthenticated"
	}
	return "internal_error"
}

// errMessage is what an operator is shown for err.
func errMessage(err error) string {
	var (
		verr   *domain.ValidationError
		apiErr *backend.APIError
	)
	switch {
	case errors.As(err, &verr):
		return "Please fix the highlighted fields."
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, domain.ErrNotFound):
		return "That record no longer exists."
	case errors.Is(err, crud.ErrConfirmNotOpen):
		return "This delete confirmation is no longer open."
	case errors.Is(err, crud.ErrFormNotOpen):
		return "This form is no longer open."
	case errors.Is(err, domain.ErrStale):
		return "The list changed while this request was running. Reload and try again."
	case errors.Is(err, domain.ErrTransport):
		return "The server could not be reached. Please try again."
	}
	return "Something went wrong. Please try again."
}

// fieldErrors returns per-field messages from a local or backend validation failure.
func fieldErrors(err error) map[string]string {
	var (
		verr   *domain.ValidationError
		apiErr *backend.APIError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Fields
	case errors.As(err, &apiErr):
		return apiErr.Fields
	}
	return nil
}

// expire ends a session the backend no longer accepts and sends the
// operator to sign in again.
func (s *Server) expire(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		s.gate.Expire(r.Context(), sess.Token)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type errorView struct {
	Heading string
	Message string
}

// fail renders err as a full error page, or restarts sign-in when the
// backend rejected the session.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		s.expire(w, r)
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	heading := "Something went wrong"
	if status == http.StatusNotFound {
		heading = "Not found"
	}
	s.render(w, r, status, "error", page{Title: heading, Data: errorView{Heading: heading, Message: errMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// failJSON writes err as an ErrorResponse.
func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if errors.Is(err, domain.ErrUnauthenticated) {
		if sess, ok := session.FromContext(r.Context()); ok {
			s.gate.Expire(r.Context(), sess.Token)
		}
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:    codeFor(status),
		Message: errMessage(err),
		Fields:  fieldErrors(err),
	}})
}
