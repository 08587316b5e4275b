// Package handler serves the signed-in user's profile over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/httpx"
	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/server/interceptors"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
	"github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
)

// ProfileService reads and changes the caller's account.
type ProfileService interface {
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID, name string) (*domain.Profile, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

const (
	msgUserNotFound    = "user not found"
	msgPasswordChanged = "password changed"
	msgWrongPassword   = "current password is incorrect"
)

// ProfileResponse is the profile plus the state of the session that fetched it.
type ProfileResponse struct {
	domain.Profile
	SessionActive bool      `json:"sessionActive"`
	LastActivity  time.Time `json:"lastActivity"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// HTTPHandler serves /api/profile and /api/password. Every route must run behind
// httpx.RequireAuth.
type HTTPHandler struct {
	profiles ProfileService
	logger   logging.Logger
	now      func() time.Time
}

// NewHTTPHandler returns an HTTPHandler over profiles. logger may be nil.
func NewHTTPHandler(profiles ProfileService, logger logging.Logger) *HTTPHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &HTTPHandler{profiles: profiles, logger: logger, now: time.Now}
}

// GetProfile returns the caller's profile.
func (h *HTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	p, err := h.profiles.Profile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "get profile", err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, ProfileResponse{
		Profile:       *p,
		SessionActive: true,
		LastActivity:  h.now().UTC(),
	})
}

// UpdateProfile changes the caller's display name.
func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.profiles.UpdateProfile(r.Context(), userID, req.Name)
	if err != nil {
		h.fail(w, r, "update profile", err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, p)
}

// ChangePassword replaces the caller's password.
func (h *HTTPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.profiles.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, "change password", err)
		return
	}
	httpx.JSON(w, r, http.StatusOK, httpx.MessageResponse{Message: msgPasswordChanged})
}

func (h *HTTPHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := interceptors.GetUserID(r.Context())
	if !ok {
		httpx.AuthError(w, r, session.ErrUnauthenticated)
	}
	return userID, ok
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.Error(w, r, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, service.ErrValidation):
		httpx.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.Error(w, r, http.StatusBadRequest, msgWrongPassword)
	default:
		h.logger.Error(r.Context(), op, "error", err)
		httpx.InternalError(w, r)
	}
}
