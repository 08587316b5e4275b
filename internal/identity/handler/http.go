// Package handler exposes the auth service over HTTP and gRPC.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/httpx"
	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/server/interceptors"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
	userdomain "github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
)

// AuthService is the part of the auth service the handlers call.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (string, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, header string) (*security.Claims, error)
	Profile(ctx context.Context, userID string) (*userdomain.Profile, error)
}

// Messages returned to HTTP and RPC clients.
const (
	MsgRegistered         = "user registered successfully"
	MsgUserExists         = "user already exists"
	MsgInvalidCredentials = "Invalid email or password"
	MsgLoggedOut          = "logged out"
	MsgLogoutFailed       = "logout failed; the session was not ended"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginUser is the user summary returned with a new token.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginResponse is the body of a successful sign-in.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	User      LoginUser `json:"user"`
}

// NewLoginResponse shapes a LoginResult for clients.
func NewLoginResponse(res *service.LoginResult) LoginResponse {
	return LoginResponse{
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
		User:      LoginUser{ID: res.User.ID, Email: res.User.Email, Name: res.User.Name},
	}
}

// LogoutResponse acknowledges a sign-out.
type LogoutResponse struct {
	Message    string    `json:"message"`
	LogoutTime time.Time `json:"logoutTime"`
}

// HTTPHandler serves /api/register, /api/login and /api/logout.
type HTTPHandler struct {
	auth   AuthService
	logger logging.Logger
	now    func() time.Time
}

// NewHTTPHandler returns an HTTPHandler over auth. logger may be nil.
func NewHTTPHandler(auth AuthService, logger logging.Logger) *HTTPHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &HTTPHandler{auth: auth, logger: logger, now: time.Now}
}

// Register creates an account. 201 on success, 400 on a bad body or taken email.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.Error(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			httpx.Error(w, r, http.StatusBadRequest, MsgUserExists)
		default:
			h.logger.Error(r.Context(), "register user", "error", err)
			httpx.InternalError(w, r)
		}
		return
	}
	httpx.JSON(w, r, http.StatusCreated, registerResponse{Message: MsgRegistered, UserID: id})
}

// Login exchanges email and password for an access token.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.Error(w, r, http.StatusUnauthorized, MsgInvalidCredentials)
			return
		}
		h.logger.Error(r.Context(), "login", "error", err)
		httpx.InternalError(w, r)
		return
	}
	httpx.JSON(w, r, http.StatusOK, NewLoginResponse(res))
}

// Logout revokes the token the request was authorized with. Must run behind
// httpx.RequireAuth. A sign-out that could not be recorded is a 500.
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := interceptors.GetToken(r.Context())
	if !ok {
		httpx.AuthError(w, r, session.ErrUnauthenticated)
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.logger.Error(r.Context(), "logout", "error", err, "token_fp", security.Fingerprint(token))
		httpx.Error(w, r, http.StatusInternalServerError, MsgLogoutFailed)
		return
	}
	userID, _ := interceptors.GetUserID(r.Context())
	h.logger.Info(r.Context(), "user signed out", "user_id", userID)
	httpx.JSON(w, r, http.StatusOK, LogoutResponse{Message: MsgLoggedOut, LogoutTime: h.now().UTC()})
}
