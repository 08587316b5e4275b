package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	userrepo "github.com/klimov-rv/user-dashboard-backend/internal/user/repository"
)

func TestReadSeedFile_Example(t *testing.T) {
	users, err := readSeedFile("users.example.yaml")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "dev@example.com", users[0].Email)
	assert.Equal(t, "Member User", users[1].Name)
}

func TestReadSeedFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: [\n"), 0o600))
	_, err := readSeedFile(path)
	assert.Error(t, err)

	_, err = readSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeed_Idempotent(t *testing.T) {
	repo := userrepo.NewFileRepository(filepath.Join(t.TempDir(), "users.json"))
	auth := service.NewAuthService(repo, security.NewHasher(bcrypt.MinCost), nil, nil, nil)
	users := []seedUser{
		{Email: "dev@example.com", Password: "password123", Name: "Dev"},
		{Email: "member@example.com", Password: "password123", Name: "Member"},
	}
	ctx := context.Background()

	created, skipped, err := seed(ctx, auth, users)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, skipped)

	created, skipped, err = seed(ctx, auth, users)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 2, skipped)

	_, _, err = seed(ctx, auth, []seedUser{{Email: "bad", Password: "password123", Name: "X"}})
	assert.Error(t, err)
}
