package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylankajourney/admin-console/internal/backend"
	"github.com/mylankajourney/admin-console/internal/domain"
)

func TestLogin_collectsCookiesAndToken(t *testing.T) {
	c, seen := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "abc", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "xyz", Path: "/"})
		writeJSON(w, http.StatusOK, `{"token":"tok-1","user":{"email":"admin@lanka.travel"}}`)
	})

	cred, err := c.Login(context.Background(), "admin@lanka.travel", "secret")

	require.NoError(t, err)
	assert.Equal(t, "/api/login", seen.path)
	var sent map[string]string
	require.NoError(t, json.Unmarshal(seen.body, &sent))
	assert.Equal(t, map[string]string{"email": "admin@lanka.travel", "password": "secret"}, sent)
	assert.Equal(t, "tok-1", cred.Token)
	assert.ElementsMatch(t, []backend.Cookie{{Name: "laravel_session", Value: "abc"}, {Name: "XSRF-TOKEN", Value: "xyz"}}, cred.Cookies)
}

func TestLogin_invalidEmailMakesNoRequest(t *testing.T) {
	c, seen := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.Login(context.Background(), "not-an-email", "secret")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Empty(t, seen.method)
}

func TestLogin_rejectedCredentials(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	})

	_, err := c.Login(context.Background(), "admin@lanka.travel", "wrong")

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCredential_attachedToRequests(t *testing.T) {
	c, seen := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	ctx := backend.WithCredential(context.Background(), backend.Credential{
		Cookies: []backend.Cookie{{Name: "laravel_session", Value: "abc"}},
		Token:   "tok-1",
	})

	require.NoError(t, c.Verify(ctx))

	assert.Equal(t, "/api/admin/countries", seen.path)
	assert.Equal(t, "Bearer tok-1", seen.auth)
	require.Len(t, seen.cookies, 1)
	assert.Equal(t, "abc", seen.cookies[0].Value)
}

func TestCredential_staticTokenFallback(t *testing.T) {
	seen := &captured{}
	srv := newRawServer(t, seen)
	c, err := backend.New(srv, backend.WithToken("static"), backend.WithTimeout(time.Second))
	require.NoError(t, err)

	require.NoError(t, c.Verify(context.Background()))
	assert.Empty(t, seen.auth, "no credential, no overlay")

	cookieOnly := backend.WithCredential(context.Background(), backend.Credential{Cookies: []backend.Cookie{{Name: "s", Value: "1"}}})
	require.NoError(t, c.Verify(cookieOnly))
	assert.Equal(t, "Bearer static", seen.auth)

	withToken := backend.WithCredential(context.Background(), backend.Credential{Token: "session"})
	require.NoError(t, c.Verify(withToken))
	assert.Equal(t, "Bearer session", seen.auth)
}

func TestVerify_unauthenticated(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	})

	assert.ErrorIs(t, c.Verify(context.Background()), domain.ErrUnauthenticated)
}

func TestLogout(t *testing.T) {
	c, seen := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, http.MethodPost, seen.method)
	assert.Equal(t, "/api/logout", seen.path)
}

func TestCredential_Empty(t *testing.T) {
	assert.True(t, backend.Credential{}.Empty())
	assert.False(t, backend.Credential{Token: "x"}.Empty())
}
