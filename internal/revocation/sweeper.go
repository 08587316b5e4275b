package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
)

// DefaultSweepInterval is how often the Sweeper compacts an otherwise idle ledger.
const DefaultSweepInterval = time.Minute

// Sweeper compacts a Ledger periodically so storage stays bounded while no
// requests arrive.
type Sweeper struct {
	ledger   *Ledger
	interval time.Duration
	logger   logging.Logger
}

// NewSweeper returns a Sweeper. An interval <= 0 disables it: Run returns at once.
func NewSweeper(ledger *Ledger, interval time.Duration, logger logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Sweeper{ledger: ledger, interval: interval, logger: logger}
}

// Run compacts the ledger every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.ledger.Compact(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn(ctx, "revocation ledger sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Debug(ctx, "revocation ledger swept", "removed", removed)
	}
}
