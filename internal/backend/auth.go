package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// verifyPath is fetched to check whether a credential is still accepted.
const verifyPath = "admin/countries"

type loginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Login exchanges email and password for a Credential. A malformed email is
// rejected before any request is made.
func (c *Client) Login(ctx context.Context, email, password string) (Credential, error) {
	body, err := json.Marshal(loginRequest{Email: openapi_types.Email(email), Password: password})
	if err != nil {
		if errors.Is(err, openapi_types.ErrValidationEmail) {
			return Credential{}, domain.NewValidationError(map[string]string{"email": "Enter a valid email address"})
		}
		return Credential{}, fmt.Errorf("backend.Client.Login: %w", err)
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: "login", body: bytes.NewReader(body), contentType: "application/json"})
	if err != nil {
		return Credential{}, fmt.Errorf("backend.Client.Login: %w", err)
	}

	var cred Credential
	for _, ck := range resp.cookies {
		if ck.MaxAge < 0 || ck.Value == "" {
			continue
		}
		cred.Cookies = append(cred.Cookies, Cookie{Name: ck.Name, Value: ck.Value})
	}
	var lr loginResponse
	if json.Unmarshal(unwrap(resp.body), &lr) == nil {
		cred.Token = lr.Token
		if cred.Token == "" {
			cred.Token = lr.AccessToken
		}
	}
	return cred, nil
}

// Logout ends the backend session of the credential in ctx.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "logout"}); err != nil {
		return fmt.Errorf("backend.Client.Logout: %w", err)
	}
	return nil
}

// Verify checks that the credential in ctx is accepted by fetching a cheap
// authenticated endpoint. Any failure means "not authenticated" to callers.
func (c *Client) Verify(ctx context.Context) error {
	if _, err := c.do(ctx, request{method: http.MethodGet, path: verifyPath}); err != nil {
		return fmt.Errorf("backend.Client.Verify: %w", err)
	}
	return nil
}
