package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/klimov-rv/user-dashboard-backend/internal/db"
	"github.com/klimov-rv/user-dashboard-backend/internal/db/migrate"
)

func TestPostgresRepository_RoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrate.Run(dsn, migrate.Up))

	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	t.Cleanup(func() { _ = repo.Save(ctx, nil) })

	require.NoError(t, repo.Save(ctx, sampleEntries()))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assertSameEntries(t, sampleEntries(), got)

	// Save replaces rather than appends.
	require.NoError(t, repo.Save(ctx, sampleEntries()[1:]))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assertSameEntries(t, sampleEntries()[1:], got)
}
