package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured. It is a
	// startup error: a provider without a secret can neither issue nor verify.
	ErrMissingSecret = errors.New("jwt signing secret is not configured")
	// ErrInvalidToken is returned when a token is malformed, has a bad signature,
	// or was signed with an unexpected key or algorithm.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired is returned when a correctly signed token is past its expiry.
	ErrExpired = errors.New("token expired")
)

// DefaultTokenTTL is the lifetime of an access token when none is configured.
const DefaultTokenTTL = time.Hour

// Claims holds the identity asserted by an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// TokenProvider issues and verifies HS256 access tokens with a process-wide secret.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a TokenProvider.
type Option func(*TokenProvider)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *TokenProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewTokenProvider returns a TokenProvider signing with secret. ttl <= 0 falls back to
// DefaultTokenTTL. Returns ErrMissingSecret when secret is empty.
func NewTokenProvider(secret string, ttl time.Duration, opts ...Option) (*TokenProvider, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	p := &TokenProvider{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// TTL returns the configured token lifetime.
func (p *TokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue signs a token for userID/email valid for exactly one TTL from now.
// Returns the token string and its expiry.
func (p *TokenProvider) Issue(userID, email string) (token string, expiresAt time.Time, err error) {
	if p == nil || len(p.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	now := p.clock().UTC()
	expiresAt = now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Email:  email,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	// NumericDate truncates to whole seconds; report what the token actually carries.
	return token, claims.ExpiresAt.Time, nil
}

// Verify parses tokenString and checks its signature and expiry in one step.
// Returns ErrExpired when the signature is valid but the token has expired, and
// ErrInvalidToken for every other failure.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	if p == nil || len(p.secret) == 0 {
		return nil, ErrMissingSecret
	}
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) clock() time.Time {
	return p.now()
}

// DecodeExpiry returns the exp claim of tokenString without verifying its
// signature. Callers must only pass tokens that already went through Verify.
func DecodeExpiry(tokenString string) (time.Time, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return claims.ExpiresAt.Time.UTC(), nil
}
