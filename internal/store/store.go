// Package store opens the user and revocation stores for the configured backend.
package store

import (
	"database/sql"
	"fmt"

	"github.com/klimov-rv/user-dashboard-backend/internal/config"
	"github.com/klimov-rv/user-dashboard-backend/internal/db"
	revrepo "github.com/klimov-rv/user-dashboard-backend/internal/revocation/repository"
	userrepo "github.com/klimov-rv/user-dashboard-backend/internal/user/repository"
)

// Stores are the persistence layer of one process.
type Stores struct {
	Users   userrepo.Repository
	Revoked revrepo.Repository
	// DB is the Postgres pool; nil for the file backend.
	DB *sql.DB
}

// Open returns the stores for cfg.StoreBackend. The file backend keeps users and
// the ledger under cfg.DataDir; the Postgres backend expects migrated tables.
func Open(cfg *config.Config) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return &Stores{
			Users:   userrepo.NewPostgresRepository(conn),
			Revoked: revrepo.NewPostgresRepository(conn),
			DB:      conn,
		}, nil
	case config.BackendFile:
		codec, err := revrepo.CodecFor(cfg.LedgerFormat)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users:   userrepo.NewFileRepository(cfg.UsersPath()),
			Revoked: revrepo.NewFileRepository(cfg.LedgerPath(), codec),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Close releases the database pool, if any.
func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
