// Package revocation implements the durable ledger of revoked access tokens.
//
// Every call re-reads the backing repository; nothing is cached in memory. A
// Ledger serializes the read-modify-write of its own calls, so a process must
// use one Ledger per backing store.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/repository"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
)

var (
	// ErrPersistence is returned by Revoke and Compact when the ledger could not be
	// read or written. A revocation that failed this way was not recorded.
	ErrPersistence = errors.New("revocation ledger persistence failed")
	// ErrUndecodableToken is returned by Revoke when no expiry can be read from the token.
	ErrUndecodableToken = errors.New("token has no readable expiry")
)

const instrumentationName = "github.com/klimov-rv/user-dashboard-backend/internal/revocation"

// Ledger is the set of revoked tokens. Entries whose expiry has passed are dropped
// on every access.
type Ledger struct {
	mu     sync.Mutex
	repo   repository.Repository
	now    func() time.Time
	logger logging.Logger

	compacted    metric.Int64Counter
	readFailures metric.Int64Counter
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the time source used for compaction and revocation stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger for fail-open and compaction diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger returns a Ledger over repo.
func NewLedger(repo repository.Repository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:   repo,
		now:    time.Now,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	if l.compacted, err = meter.Int64Counter("revocation.ledger.compacted",
		metric.WithDescription("Expired entries removed from the revocation ledger"),
		metric.WithUnit("{entry}")); err != nil {
		l.logger.Warn(context.Background(), "create compaction counter", "error", err)
	}
	if l.readFailures, err = meter.Int64Counter("revocation.ledger.read_failures",
		metric.WithDescription("Membership checks answered without a readable ledger")); err != nil {
		l.logger.Warn(context.Background(), "create read failure counter", "error", err)
	}
	return l
}

// Contains reports whether token is revoked. Expired entries are removed first and
// the compacted ledger is persisted when anything was removed.
//
// If the ledger cannot be read the token is treated as not revoked; the failure is
// logged. A failed compaction write is logged and the answer still comes from the
// compacted snapshot.
func (l *Ledger) Contains(ctx context.Context, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.repo.Load(ctx)
	if err != nil {
		l.logger.Error(ctx, "revocation ledger unreadable; treating token as not revoked",
			"error", err, "token_fp", security.Fingerprint(token))
		l.count(ctx, l.readFailures, 1)
		return false
	}
	live, removed := compact(entries, l.now())
	if removed > 0 {
		if err := l.repo.Save(ctx, live); err != nil {
			l.logger.Error(ctx, "persist compacted revocation ledger", "error", err, "removed", removed)
		} else {
			l.count(ctx, l.compacted, int64(removed))
		}
	}
	return indexOf(live, token) >= 0
}

// Revoke records token as revoked until its own expiry. Revoking a token that is
// already present, or that has already expired, changes nothing. Load and save
// failures are returned wrapped in ErrPersistence.
func (l *Ledger) Revoke(ctx context.Context, token string) error {
	expiresAt, err := security.DecodeExpiry(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUndecodableToken, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	now := l.now().UTC()
	live, removed := compact(entries, now)
	changed := removed > 0
	if now.Before(expiresAt) && indexOf(live, token) < 0 {
		live = append(live, domain.Entry{
			Token:     token,
			ExpiresAt: expiresAt,
			RevokedAt: now.Truncate(time.Millisecond),
		})
		changed = true
	}
	if !changed {
		return nil
	}
	if err := l.repo.Save(ctx, live); err != nil {
		return fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	if removed > 0 {
		l.count(ctx, l.compacted, int64(removed))
	}
	l.logger.Debug(ctx, "token revoked", "token_fp", security.Fingerprint(token), "expires_at", expiresAt)
	return nil
}

// Compact removes expired entries and persists the result. Returns how many
// entries were removed.
func (l *Ledger) Compact(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.repo.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	live, removed := compact(entries, l.now())
	if removed == 0 {
		return 0, nil
	}
	if err := l.repo.Save(ctx, live); err != nil {
		return 0, fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	l.count(ctx, l.compacted, int64(removed))
	return removed, nil
}

// Entries returns the live entries in insertion order without modifying the ledger.
func (l *Ledger) Entries(ctx context.Context) ([]domain.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	live, _ := compact(entries, l.now())
	return live, nil
}

func (l *Ledger) count(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil {
		c.Add(ctx, n)
	}
}

// compact returns the entries still live at now, preserving order.
func compact(entries []domain.Entry, now time.Time) ([]domain.Entry, int) {
	live := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Expired(now) {
			live = append(live, e)
		}
	}
	return live, len(entries) - len(live)
}

func indexOf(entries []domain.Entry, token string) int {
	for i, e := range entries {
		if e.Token == token {
			return i
		}
	}
	return -1
}
