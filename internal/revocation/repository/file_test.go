package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
)

func sampleEntries() []domain.Entry {
	base := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	return []domain.Entry{
		{Token: "tok-a", ExpiresAt: base.Add(time.Hour), RevokedAt: base.Add(123 * time.Millisecond)},
		{Token: "tok-b", ExpiresAt: base.Add(2 * time.Hour), RevokedAt: base.Add(time.Minute)},
	}
}

func assertSameEntries(t *testing.T, want, got []domain.Entry) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Token, got[i].Token, "entry %d token", i)
		assert.True(t, want[i].ExpiresAt.Equal(got[i].ExpiresAt), "entry %d expiresAt: want %v got %v", i, want[i].ExpiresAt, got[i].ExpiresAt)
		assert.True(t, want[i].RevokedAt.Equal(got[i].RevokedAt), "entry %d revokedAt: want %v got %v", i, want[i].RevokedAt, got[i].RevokedAt)
	}
}

func TestFileRepository_MissingFileIsEmpty(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "blacklist.json"), JSONCodec{})

	entries, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileRepository_EmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	entries, err := NewFileRepository(path, JSONCodec{}).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileRepository_RoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, CBORCodec{}} {
		t.Run(codec.Ext(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data", "blacklist."+codec.Ext())
			repo := NewFileRepository(path, codec)
			ctx := context.Background()

			require.NoError(t, repo.Save(ctx, sampleEntries()))
			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assertSameEntries(t, sampleEntries(), got)

			// A second repository over the same file sees the same state.
			got, err = NewFileRepository(path, codec).Load(ctx)
			require.NoError(t, err)
			assertSameEntries(t, sampleEntries(), got)
		})
	}
}

func TestFileRepository_SaveEmptyWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	repo := NewFileRepository(path, JSONCodec{})

	require.NoError(t, repo.Save(context.Background(), nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))
}

func TestFileRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileRepository(path, JSONCodec{}).Load(context.Background())
	require.Error(t, err)
}

func TestFileRepository_CancelledContext(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "blacklist.json"), JSONCodec{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, repo.Save(ctx, sampleEntries()), context.Canceled)
}
