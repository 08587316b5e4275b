package rpc

import (
	"context"
	"errors"
	"time"

	identityhandler "github.com/klimov-rv/user-dashboard-backend/internal/identity/handler"
	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
	userdomain "github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
)

// AuthService is everything the auth.* and user.* methods call.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (string, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Validate(ctx context.Context, header string) (*security.Claims, error)
	Profile(ctx context.Context, userID string) (*userdomain.Profile, error)
	UpdateProfile(ctx context.Context, userID, name string) (*userdomain.Profile, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

type registerParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type validateParams struct {
	Token string `json:"token"`
}

type updateProfileParams struct {
	Name string `json:"name" validate:"required,max=200"`
}

type changePasswordParams struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type validateResult struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// NewAuthServer returns a Server with the auth.* and user.* methods bound to
// auth. Every user.* method and auth.logout run behind guard.
func NewAuthServer(guard Authorizer, auth AuthService, opts ...Option) *Server {
	s := NewServer(guard, opts...)
	s.mapErr = serviceError

	s.Handle("auth.register", false, func(ctx context.Context, c *Call) (any, error) {
		var p registerParams
		if err := c.Bind(&p); err != nil {
			return nil, err
		}
		id, err := auth.Register(ctx, p.Email, p.Password, p.Name)
		if err != nil {
			return nil, err
		}
		return map[string]string{"userId": id, "message": identityhandler.MsgRegistered}, nil
	})
	s.Handle("auth.login", false, func(ctx context.Context, c *Call) (any, error) {
		var p loginParams
		if err := c.Bind(&p); err != nil {
			return nil, err
		}
		res, err := auth.Login(ctx, p.Email, p.Password)
		if err != nil {
			return nil, err
		}
		return identityhandler.NewLoginResponse(res), nil
	})
	s.Handle("auth.logout", true, func(ctx context.Context, c *Call) (any, error) {
		if err := auth.Logout(ctx, c.Token); err != nil {
			s.logger.Error(ctx, "rpc logout", "error", err, "token_fp", security.Fingerprint(c.Token))
			return nil, &Error{Code: CodeInternalError, Message: identityhandler.MsgLogoutFailed}
		}
		return identityhandler.LogoutResponse{Message: identityhandler.MsgLoggedOut, LogoutTime: s.now().UTC()}, nil
	})
	s.Handle("auth.validate", false, func(ctx context.Context, c *Call) (any, error) {
		var p validateParams
		if err := c.Bind(&p); err != nil {
			return nil, err
		}
		header := c.Header
		if p.Token != "" {
			header = "Bearer " + session.BearerToken(p.Token)
		}
		claims, err := auth.Validate(ctx, header)
		if err != nil {
			return nil, err
		}
		res := validateResult{Valid: true, UserID: claims.UserID, Email: claims.Email}
		if claims.ExpiresAt != nil {
			res.ExpiresAt = claims.ExpiresAt.UTC()
		}
		return res, nil
	})
	s.Handle("user.getProfile", true, func(ctx context.Context, c *Call) (any, error) {
		return auth.Profile(ctx, c.Claims.UserID)
	})
	s.Handle("user.updateProfile", true, func(ctx context.Context, c *Call) (any, error) {
		var p updateProfileParams
		if err := c.Bind(&p); err != nil {
			return nil, err
		}
		return auth.UpdateProfile(ctx, c.Claims.UserID, p.Name)
	})
	s.Handle("user.changePassword", true, func(ctx context.Context, c *Call) (any, error) {
		var p changePasswordParams
		if err := c.Bind(&p); err != nil {
			return nil, err
		}
		if err := auth.ChangePassword(ctx, c.Claims.UserID, p.CurrentPassword, p.NewPassword); err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return nil, &Error{Code: CodeInvalidParams, Message: "current password is incorrect"}
			}
			return nil, err
		}
		return map[string]string{"message": "password changed"}, nil
	})
	return s
}

// serviceError maps auth service errors to RPC errors carrying a client-facing message.
func serviceError(err error) *Error {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, revocation.ErrUndecodableToken):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return &Error{Code: CodeInternalError, Message: identityhandler.MsgUserExists}
	case errors.Is(err, service.ErrInvalidCredentials):
		return &Error{Code: CodeInternalError, Message: identityhandler.MsgInvalidCredentials}
	case errors.Is(err, service.ErrUserNotFound):
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return nil
}
