package backend

import (
	"context"
	"net/http"
)

// Cookie is a backend session cookie held on the operator's behalf.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Credential is what the backend handed out at login: its session cookies
// and, when it returns one, a bearer token.
type Credential struct {
	Cookies []Cookie `json:"cookies,omitempty"`
	Token   string   `json:"token,omitempty"`
}

// Empty reports whether c carries nothing to authenticate with.
func (c Credential) Empty() bool {
	return len(c.Cookies) == 0 && c.Token == ""
}

type credentialKey struct{}

// WithCredential returns a context whose backend calls authenticate as c.
func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

// CredentialFrom returns the credential stored in ctx, if any.
func CredentialFrom(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	return c, ok
}

// credentialTransport attaches the context credential to every request and
// asks for JSON. The static token is only an overlay: it is sent for
// requests that carry a non-empty credential without a token of their own.
type credentialTransport struct {
	next  http.RoundTripper
	token string
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Accept", "application/json")

	cred, ok := CredentialFrom(req.Context())
	if !ok || cred.Empty() {
		return t.next.RoundTrip(r)
	}
	for _, c := range cred.Cookies {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	token := cred.Token
	if token == "" {
		token = t.token
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return t.next.RoundTrip(r)
}
