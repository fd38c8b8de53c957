package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixeljam/devwatch/internal/host"
	"github.com/pixeljam/devwatch/internal/infrastructure/config"
)

func newServerForTest(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Heartbeat.Enabled = false
	srv, err := NewServer(cfg, host.NewMemoryContainer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func doJSON(srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newServerForTest(t)
	w := doJSON(srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestFrameLifecycleOverREST(t *testing.T) {
	srv := newServerForTest(t)

	w := doJSON(srv, http.MethodPost, "/frames", host.FrameConfig{
		ID:    "dino-run",
		Src:   "https://games.pixeljamarcade.com/dino",
		Title: "Dino Run",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "dino-run", created["id"])
	assert.Equal(t, false, created["connected"])

	w = doJSON(srv, http.MethodGet, "/frames", nil)
	require.Equal(t, http.StatusOK, w.Code)
	frames := decode(t, w)["frames"].([]any)
	assert.Len(t, frames, 1)

	w = doJSON(srv, http.MethodGet, "/frames/dino-run", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodDelete, "/frames/dino-run", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodGet, "/frames/dino-run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateFrameValidationFailure(t *testing.T) {
	srv := newServerForTest(t)

	w := doJSON(srv, http.MethodPost, "/frames", map[string]any{"id": "no-src"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(srv, http.MethodGet, "/diagnostics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]any)
	assert.NotEmpty(t, entries)
}

func TestFrameMessageRequiresConnectedGuest(t *testing.T) {
	srv := newServerForTest(t)
	doJSON(srv, http.MethodPost, "/frames", host.FrameConfig{ID: "idle", Src: "https://games.pixeljamarcade.com/idle"})

	w := doJSON(srv, http.MethodPost, "/frames/idle/message", map[string]any{
		"type": "dashboard-announcement",
		"data": map[string]any{"text": "hi"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	srv := newServerForTest(t)
	require.NoError(t, srv.Auth().AddUser("dev", "correct horse"))

	w := doJSON(srv, http.MethodPost, "/auth/login", map[string]string{
		"username": "dev", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(srv, http.MethodPost, "/auth/login", map[string]string{
		"username": "dev", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = doJSON(srv, http.MethodPost, "/auth/verify", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])

	w = doJSON(srv, http.MethodPost, "/auth/logout", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(srv, http.MethodPost, "/auth/verify", map[string]string{"token": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAllowedDomainsEndpoint(t *testing.T) {
	srv := newServerForTest(t)

	w := doJSON(srv, http.MethodGet, "/security/domains", nil)
	require.Equal(t, http.StatusOK, w.Code)
	domains := decode(t, w)["allowed_domains"].([]any)
	require.Len(t, domains, 1)
	assert.Equal(t, "pixeljamarcade.com", domains[0])
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	srv := newServerForTest(t)
	doJSON(srv, http.MethodGet, "/health", nil)

	w := doJSON(srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "devwatch_")
}
