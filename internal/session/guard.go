// Package session gates requests on a bearer token: the revocation ledger is
// consulted first, then the token signature and expiry.
package session

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
)

const bearerPrefix = "Bearer "

const instrumentationName = "github.com/klimov-rv/user-dashboard-backend/internal/session"

// Verifier checks a token's signature and expiry.
type Verifier interface {
	Verify(token string) (*security.Claims, error)
}

// Ledger is the revocation set the guard consults and feeds.
type Ledger interface {
	Contains(ctx context.Context, token string) bool
	Revoke(ctx context.Context, token string) error
}

// Guard authorizes requests and records sign-outs.
type Guard struct {
	tokens   Verifier
	ledger   Ledger
	logger   logging.Logger
	outcomes metric.Int64Counter
}

// NewGuard returns a Guard over tokens and ledger. logger may be nil.
func NewGuard(tokens Verifier, ledger Ledger, logger logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Nop()
	}
	g := &Guard{tokens: tokens, ledger: ledger, logger: logger}
	outcomes, err := otel.Meter(instrumentationName).Int64Counter("auth.authorize.outcomes",
		metric.WithDescription("Authorization decisions by outcome"))
	if err != nil {
		logger.Warn(context.Background(), "create authorize outcome counter", "error", err)
	} else {
		g.outcomes = outcomes
	}
	return g
}

// BearerToken strips the "Bearer " prefix from an Authorization header value.
// A value without the prefix is returned unchanged.
func BearerToken(header string) string {
	return strings.TrimPrefix(header, bearerPrefix)
}

// Authorize resolves the Authorization header to the token's claims. A revoked
// token is rejected with ErrSessionRevoked before its signature is looked at.
func (g *Guard) Authorize(ctx context.Context, header string) (*security.Claims, error) {
	if header == "" {
		return nil, g.fail(ctx, ErrUnauthenticated)
	}
	token := BearerToken(header)

	if g.ledger.Contains(ctx, token) {
		g.logger.Info(ctx, "rejected revoked session", "token_fp", security.Fingerprint(token))
		return nil, g.fail(ctx, ErrSessionRevoked)
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, security.ErrExpired) {
			return nil, g.fail(ctx, ErrExpired)
		}
		return nil, g.fail(ctx, ErrInvalid)
	}
	g.record(ctx, "authorized")
	return claims, nil
}

// Revoke ends the session carried by token. The token must already have passed
// Authorize; only its expiry is read.
func (g *Guard) Revoke(ctx context.Context, token string) error {
	if err := g.ledger.Revoke(ctx, token); err != nil {
		g.logger.Error(ctx, "revoke session", "error", err, "token_fp", security.Fingerprint(token))
		return err
	}
	g.logger.Info(ctx, "session revoked", "token_fp", security.Fingerprint(token))
	return nil
}

// IsRevoked reports whether token is in the revocation ledger.
func (g *Guard) IsRevoked(ctx context.Context, token string) bool {
	return g.ledger.Contains(ctx, token)
}

func (g *Guard) fail(ctx context.Context, err *AuthError) error {
	g.record(ctx, err.Code)
	return err
}

func (g *Guard) record(ctx context.Context, outcome string) {
	if g.outcomes != nil {
		g.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
