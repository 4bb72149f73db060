package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylankajourney/admin-console/internal/handler"
)

// TestHealth_returns200WithOKStatus verifies that GET /healthz returns
// HTTP 200 and a JSON body of {"status":"ok"} without any session.
func TestHealth_returns200WithOKStatus(t *testing.T) {
	e := newEnv(t)

	w := e.get("/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body handler.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	assert.Empty(t, w.Result().Cookies())
}

func TestOpenAPI_servesEmbeddedDocument(t *testing.T) {
	e := newEnv(t)

	w := e.get("/openapi.yaml", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/content/{kind}")
}
