package repository

import (
	"context"

	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
)

// Repository is the durable backing of the revocation ledger. Load returns the full
// persisted entry sequence in insertion order; Save replaces it. Implementations are
// not required to serialize concurrent Load/Save pairs; the ledger does that.
type Repository interface {
	Load(ctx context.Context) ([]domain.Entry, error)
	Save(ctx context.Context, entries []domain.Entry) error
}
