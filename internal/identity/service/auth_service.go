package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/telemetry"
	userdomain "github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
	userrepo "github.com/klimov-rv/user-dashboard-backend/internal/user/repository"
)

// Sentinel errors for auth service; handlers map them to HTTP statuses, JSON-RPC errors and gRPC codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUserNotFound           = errors.New("user not found")
	ErrValidation             = errors.New("validation failed")
)

// MinPasswordLength is the shortest password Register and ChangePassword accept.
const MinPasswordLength = 8

// LoginResult is a signed-in session handed to the client.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64
	User      userdomain.Profile
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Update(ctx context.Context, u *userdomain.User) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, time.Time, error)
	TTL() time.Duration
}

// SessionGuard authorizes bearer headers and ends sessions.
type SessionGuard interface {
	Authorize(ctx context.Context, header string) (*security.Claims, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService implements register, login, logout, token validation and profile management.
type AuthService struct {
	users  UserRepo
	hasher *security.Hasher
	tokens TokenIssuer
	guard  SessionGuard
	logger logging.Logger
	events telemetry.EventEmitter
	now    func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. logger may be nil.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens TokenIssuer, guard SessionGuard, logger logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		guard:  guard,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventEmitter sends session lifecycle events to e. nil disables events.
func (s *AuthService) SetEventEmitter(e telemetry.EventEmitter) {
	s.events = e
}

func (s *AuthService) emit(ctx context.Context, eventType, userID, token string) {
	ev := &telemetry.Event{Type: eventType, UserID: userID, Source: "auth"}
	if token != "" {
		ev.TokenFP = security.Fingerprint(token)
	}
	telemetry.EmitAsync(ctx, s.events, s.logger, ev)
}

// Register creates a user with the given email, password and display name.
// Returns the new user's ID.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (string, error) {
	email = userdomain.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return "", fmt.Errorf("%w: email, password and name are required", ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return "", ErrEmailAlreadyRegistered
		}
		return "", err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	s.emit(ctx, telemetry.EventRegistered, user.ID, "")
	return user.ID, nil
}

// Login checks email and password and issues an access token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.emit(ctx, telemetry.EventSignInFail, "", "")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			s.logger.Warn(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		}
		s.emit(ctx, telemetry.EventSignInFail, user.ID, "")
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user signed in", "user_id", user.ID, "token_fp", security.Fingerprint(token))
	s.emit(ctx, telemetry.EventSignedIn, user.ID, token)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(s.tokens.TTL() / time.Second),
		User:      user.Profile(),
	}, nil
}

// Logout revokes token. A failure means the sign-out was not recorded and is returned.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.guard.Revoke(ctx, token); err != nil {
		s.emit(ctx, telemetry.EventSignOutFail, "", token)
		return err
	}
	s.emit(ctx, telemetry.EventSignedOut, "", token)
	return nil
}

// Validate authorizes an Authorization header value and returns its claims.
func (s *AuthService) Validate(ctx context.Context, header string) (*security.Claims, error) {
	return s.guard.Authorize(ctx, header)
}

// Profile returns the user's profile. Returns ErrUserNotFound if the user no longer exists.
func (s *AuthService) Profile(ctx context.Context, userID string) (*userdomain.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// UpdateProfile changes the user's display name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name string) (*userdomain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.UpdatedAt = s.now().UTC()
	if err := s.update(ctx, user); err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// ChangePassword replaces the user's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", ErrValidation)
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.UpdatedAt = s.now().UTC()
	if err := s.update(ctx, user); err != nil {
		return err
	}
	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

func (s *AuthService) getUser(ctx context.Context, userID string) (*userdomain.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) update(ctx context.Context, user *userdomain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func validateEmail(email string) error {
	if !userdomain.ValidEmail(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}
