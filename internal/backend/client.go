// Package backend is the console's client for the travel platform's REST API.
// Every call carries the operator's Credential from the request context.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mylankajourney/admin-console/internal/domain"
)

const maxResponseBytes = 10 << 20

// Client talks to the backend rooted at a base URL such as
// http://localhost:8000/api.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	token   string
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken sets a static bearer token used when the session carries none.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHTTPClient replaces the underlying http.Client. Its transport is
// wrapped so credentials are still attached.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("backend.New: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend.New: base url %q must be http or https", baseURL)
	}
	c := &Client{base: u, timeout: 10 * time.Second, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{}
	if c.http != nil {
		copied := *c.http
		hc = &copied
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &credentialTransport{next: next, token: c.token}
	if hc.Timeout == 0 {
		hc.Timeout = c.timeout
	}
	c.http = hc
	return c, nil
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
}

// response is a successful backend reply.
type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (c *Client) do(ctx context.Context, r request) (response, error) {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimLeft(r.path, "/")})
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "backend request failed", "method", r.method, "path", r.path, "error", err)
		return response{}, fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, r.method, r.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("%w: read %s %s: %w", domain.ErrTransport, r.method, r.path, err)
	}
	c.log.DebugContext(ctx, "backend request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{}, newAPIError(resp.StatusCode, body)
	}
	return response{status: resp.StatusCode, body: body, cookies: resp.Cookies()}, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, v any) (response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return response{}, err
	}
	return c.do(ctx, request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"})
}

// unwrap strips a {"data": ...} envelope when the backend uses one.
func unwrap(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	data, ok := env["data"]
	if !ok {
		return trimmed
	}
	data = bytes.TrimSpace(data)
	// A paginated list carries links/meta next to data; a single record is
	// only treated as enveloped when data is its sole key.
	if len(data) > 0 && (data[0] == '[' || (data[0] == '{' && len(env) == 1)) {
		return data
	}
	return trimmed
}

func decode[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(unwrap(body), &v); err != nil {
		return v, fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	return v, nil
}

// APIError is a non-2xx reply from the backend.
type APIError struct {
	Status  int
	Message string
	// Fields carries per-field messages from a 422 reply, if any.
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Is reports ErrTransport for every APIError, plus the sentinel matching its
// status: ErrUnauthenticated (401, 419), ErrNotFound (404), ErrValidation (422).
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrTransport:
		return true
	case domain.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized || e.Status == 419
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrValidation:
		return e.Status == http.StatusUnprocessableEntity
	}
	return false
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var payload struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
		e.Fields = fieldErrors(payload.Errors)
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// fieldErrors accepts {"field": "msg"} and {"field": ["msg", ...]}.
func fieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	out := make(map[string]string, len(generic))
	for field, v := range generic {
		var one string
		if json.Unmarshal(v, &one) == nil {
			out[field] = one
			continue
		}
		var many []string
		if json.Unmarshal(v, &many) == nil && len(many) > 0 {
			out[field] = many[0]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsAPIError reports whether err carries an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
