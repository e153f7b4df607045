package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/auth"
	"librarium/internal/catalog"
	"librarium/internal/config"
	"librarium/internal/httpx"
	"librarium/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.TokenSecret = "test-secret"
	cfg.Data.Dir = t.TempDir()

	log := zerolog.Nop()
	creds := store.NewCredentialStore(cfg.Data.Dir)
	sessions := store.NewSessionStore(cfg.Data.Dir)

	authService := auth.NewService(creds, sessions, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.SessionTTL, log)
	catalogService := catalog.NewService(creds, nil, log)

	rateLimit := httpx.NewRateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	t.Cleanup(rateLimit.Stop)

	return newRouter(cfg, log, rateLimit,
		auth.NewHTTPHandler(authService),
		catalog.NewHTTPHandler(catalogService),
	)
}

func request(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	router := newTestServer(t)

	w := request(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestServer(t)

	for _, path := range []string{"/api/books", "/api/collections", "/api/stats", "/api/dashboard"} {
		w := request(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRegisterLoginAndCatalogFlow(t *testing.T) {
	router := newTestServer(t)

	w := request(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "pw1", "confirm_password": "pw1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = request(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "pw1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)
	token := login.Data.AccessToken

	w = request(t, router, http.MethodPost, "/api/books", token, map[string]any{
		"title": "Dune", "author": "Herbert", "rating": 5, "status": "Read",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = request(t, router, http.MethodGet, "/api/books", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dune")

	w = request(t, router, http.MethodGet, "/api/stats", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_data":true`)
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestServer(t)

	w := request(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
