package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimitMiddleware(1, 2)
	t.Cleanup(rl.Stop)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	t.Run("burst then throttled", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send("1.2.3.4:1000"))
		assert.Equal(t, http.StatusOK, send("1.2.3.4:1000"))
		assert.Equal(t, http.StatusTooManyRequests, send("1.2.3.4:1000"))
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send("5.6.7.8:1000"))
	})
}

func TestRateLimitMiddlewareStop(t *testing.T) {
	rl := NewRateLimitMiddleware(1, 1)

	rl.Stop()
	// Stop is idempotent.
	rl.Stop()

	// A stopped limiter still serves requests; only the cleanup loop exits.
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
