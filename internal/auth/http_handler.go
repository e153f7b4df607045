package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"librarium/internal/httpx"
	"librarium/internal/store"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type RegisterReq struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Register handles POST /api/auth/register.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	err := h.service.Register(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	switch {
	case err == nil:
		httpx.JSONCreated(w, map[string]any{"username": req.Username})
	case errors.Is(err, ErrDuplicateUsername):
		httpx.JSONError(w, http.StatusConflict, "DUPLICATE_USERNAME", "Username already exists", nil)
	case errors.Is(err, ErrPasswordMismatch):
		httpx.JSONError(w, http.StatusBadRequest, "PASSWORD_MISMATCH", "Passwords do not match", nil)
	case errors.Is(err, ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required", nil)
	case errors.Is(err, store.ErrPersistence):
		httpx.JSONError(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Could not save account", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

type LoginReq struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// Login handles POST /api/auth/login. With remember_me set, a session record
// is persisted so the login survives restarts.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	token, expiresIn, err := h.service.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownUser):
		httpx.JSONError(w, http.StatusUnauthorized, "UNKNOWN_USER", "Username not found", nil)
		return
	case errors.Is(err, ErrInvalidPassword):
		httpx.JSONError(w, http.StatusUnauthorized, "INVALID_PASSWORD", "Invalid password", nil)
		return
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	resp := map[string]any{
		"access_token": token,
		"expires_in":   expiresIn,
	}
	if req.RememberMe {
		sess, err := h.service.CreateSession(r.Context(), req.Username)
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Could not persist session", nil)
			return
		}
		resp["session_id"] = sess.ID
	}
	httpx.JSONSuccess(w, resp, nil)
}

// Restore handles POST /api/auth/restore: it revives the most recent
// persisted session, if one exists and has not expired.
func (h *HTTPHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sess, token, ok := h.service.RestoreSession(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "NO_SESSION", "No restorable session", nil)
		return
	}
	httpx.JSONSuccess(w, map[string]any{
		"access_token": token,
		"username":     sess.Username,
		"session_id":   sess.ID,
	}, nil)
}

type LogoutReq struct {
	SessionID string `json:"session_id"`
}

// Logout handles POST /api/auth/logout. The access token simply lapses; the
// persisted session record, if named, is deleted.
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.service.Logout(r.Context(), req.SessionID); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Could not remove session", nil)
		return
	}
	httpx.JSONNoContent(w)
}
