package repository

import (
	"context"
	"fmt"

	"github.com/klimov-rv/user-dashboard-backend/internal/filex"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
)

// FileRepository keeps the ledger in a single file. A missing or empty file is an
// empty ledger. Writes replace the file atomically.
type FileRepository struct {
	path  string
	codec Codec
}

// NewFileRepository returns a repository persisting to path with codec.
func NewFileRepository(path string, codec Codec) *FileRepository {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &FileRepository{path: path, codec: codec}
}

// Path returns the ledger file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and decodes the ledger file.
func (r *FileRepository) Load(ctx context.Context) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := filex.ReadOptional(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	entries, err := r.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	return entries, nil
}

// Save encodes entries and atomically replaces the ledger file.
func (r *FileRepository) Save(ctx context.Context, entries []domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := r.codec.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return filex.WriteAtomic(r.path, data, 0o600)
}
