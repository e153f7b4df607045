package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	handler(w, r)
	return w
}

func TestHTTPHandler_Register(t *testing.T) {
	handler := NewHTTPHandler(newTestService(t))

	t.Run("success", func(t *testing.T) {
		w := postJSON(t, handler.Register, RegisterReq{
			Username: "alice", Password: "pw1", ConfirmPassword: "pw1",
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		w := postJSON(t, handler.Register, RegisterReq{
			Username: "alice", Password: "pw2", ConfirmPassword: "pw2",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_USERNAME")
	})

	t.Run("password mismatch", func(t *testing.T) {
		w := postJSON(t, handler.Register, RegisterReq{
			Username: "bob", Password: "pw1", ConfirmPassword: "pw2",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "PASSWORD_MISMATCH")
	})

	t.Run("missing fields", func(t *testing.T) {
		w := postJSON(t, handler.Register, RegisterReq{Username: "carol"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("bad body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
		handler.Register(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_Login(t *testing.T) {
	svc := newTestService(t)
	handler := NewHTTPHandler(svc)

	w := postJSON(t, handler.Register, RegisterReq{
		Username: "alice", Password: "pw1", ConfirmPassword: "pw1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("success", func(t *testing.T) {
		w := postJSON(t, handler.Login, LoginReq{Username: "alice", Password: "pw1"})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data["access_token"])
		assert.Nil(t, resp.Data["session_id"])
	})

	t.Run("remember me persists a session", func(t *testing.T) {
		w := postJSON(t, handler.Login, LoginReq{Username: "alice", Password: "pw1", RememberMe: true})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data["session_id"])

		restoreW := httptest.NewRecorder()
		handler.Restore(restoreW, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, restoreW.Code)
		assert.Contains(t, restoreW.Body.String(), "alice")
	})

	t.Run("unknown user", func(t *testing.T) {
		w := postJSON(t, handler.Login, LoginReq{Username: "mallory", Password: "pw1"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_USER")
	})

	t.Run("invalid password", func(t *testing.T) {
		w := postJSON(t, handler.Login, LoginReq{Username: "alice", Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_PASSWORD")
	})
}

func TestHTTPHandler_RestoreWithoutSession(t *testing.T) {
	handler := NewHTTPHandler(newTestService(t))

	w := httptest.NewRecorder()
	handler.Restore(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "NO_SESSION")
}

func TestHTTPHandler_Logout(t *testing.T) {
	svc := newTestService(t)
	handler := NewHTTPHandler(svc)

	sess, err := svc.CreateSession(httptest.NewRequest(http.MethodPost, "/", nil).Context(), "alice")
	require.NoError(t, err)

	w := postJSON(t, handler.Logout, LogoutReq{SessionID: sess.ID})
	assert.Equal(t, http.StatusNoContent, w.Code)

	restoreW := httptest.NewRecorder()
	handler.Restore(restoreW, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, restoreW.Code)
}
