package handler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation"
	revrepo "github.com/klimov-rv/user-dashboard-backend/internal/revocation/repository"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
	userrepo "github.com/klimov-rv/user-dashboard-backend/internal/user/repository"
)

type fixture struct {
	auth   *service.AuthService
	guard  *session.Guard
	tokens *security.TokenProvider
	clock  *security.FixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	clock := &security.FixedClock{T: time.Now().UTC().Truncate(time.Second)}
	tokens := security.NewTestTokenProvider(clock.Now)
	ledger := revocation.NewLedger(
		revrepo.NewFileRepository(filepath.Join(dir, "blacklist.json"), revrepo.JSONCodec{}),
		revocation.WithClock(clock.Now),
	)
	guard := session.NewGuard(tokens, ledger, nil)
	users := userrepo.NewFileRepository(filepath.Join(dir, "users.json"))
	auth := service.NewAuthService(users, security.NewHasher(bcrypt.MinCost), tokens, guard, nil)
	return &fixture{auth: auth, guard: guard, tokens: tokens, clock: clock}
}

// signIn registers a user and returns a fresh token for it.
func (f *fixture) signIn(t *testing.T, email string) (userID, token string) {
	t.Helper()
	ctx := context.Background()
	id, err := f.auth.Register(ctx, email, "password123", "Test User")
	require.NoError(t, err)
	res, err := f.auth.Login(ctx, email, "password123")
	require.NoError(t, err)
	return id, res.Token
}
