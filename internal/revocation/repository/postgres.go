package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klimov-rv/user-dashboard-backend/internal/db"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
)

const (
	loadEntriesSQL  = `SELECT token, expires_at, revoked_at FROM revoked_tokens ORDER BY seq`
	clearEntriesSQL = `DELETE FROM revoked_tokens`
	insertEntrySQL  = `INSERT INTO revoked_tokens (token, seq, expires_at, revoked_at) VALUES ($1, $2, $3, $4)`
)

// PostgresRepository keeps the ledger in the revoked_tokens table. seq preserves
// insertion order across Save/Load.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a ledger repository backed by conn.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Load returns every persisted entry in insertion order.
func (r *PostgresRepository) Load(ctx context.Context) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, loadEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("query revoked tokens: %w", err)
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.Token, &e.ExpiresAt, &e.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan revoked token: %w", err)
		}
		e.ExpiresAt = e.ExpiresAt.UTC()
		e.RevokedAt = e.RevokedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revoked tokens: %w", err)
	}
	return out, nil
}

// Save replaces the table content with entries in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, entries []domain.Entry) error {
	return db.WithTx(ctx, r.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, clearEntriesSQL); err != nil {
			return fmt.Errorf("clear revoked tokens: %w", err)
		}
		for i, e := range entries {
			if _, err := tx.ExecContext(ctx, insertEntrySQL, e.Token, int64(i), e.ExpiresAt.UTC(), e.RevokedAt.UTC()); err != nil {
				return fmt.Errorf("insert revoked token %d: %w", i, err)
			}
		}
		return nil
	})
}
