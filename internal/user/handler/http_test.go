package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/klimov-rv/user-dashboard-backend/internal/httpx"
	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation"
	revrepo "github.com/klimov-rv/user-dashboard-backend/internal/revocation/repository"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
	"github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
	userrepo "github.com/klimov-rv/user-dashboard-backend/internal/user/repository"
)

type env struct {
	auth   *service.AuthService
	router http.Handler
	token  string
	userID string
}

func newEnv(t *testing.T, profiles ProfileService) *env {
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

	ctx := context.Background()
	id, err := auth.Register(ctx, "a@example.com", "password123", "Alice")
	require.NoError(t, err)
	res, err := auth.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	if profiles == nil {
		profiles = auth
	}
	h := NewHTTPHandler(profiles, nil)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(httpx.RequireAuth(guard, nil))
		r.Get("/api/profile", h.GetProfile)
		r.Patch("/api/profile", h.UpdateProfile)
		r.Post("/api/password", h.ChangePassword)
	})
	return &env{auth: auth, router: r, token: res.Token, userID: id}
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_GetProfile(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, e.userID, body["id"])
	assert.Equal(t, "a@example.com", body["email"])
	assert.Equal(t, "Alice", body["name"])
	assert.Equal(t, true, body["sessionActive"])
	assert.NotEmpty(t, body["lastActivity"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "PasswordHash")
}

func TestHTTP_GetProfileWithoutToken(t *testing.T) {
	e := newEnv(t, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "auth_required")
}

type missingUser struct{ ProfileService }

func (missingUser) Profile(context.Context, string) (*domain.Profile, error) {
	return nil, service.ErrUserNotFound
}

func TestHTTP_GetProfileUserGone(t *testing.T) {
	e := newEnv(t, missingUser{})
	rec := e.do(t, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), msgUserNotFound)
}

func TestHTTP_UpdateProfile(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPatch, "/api/profile", `{"name":"Alice Cooper"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Alice Cooper", p.Name)

	got, err := e.auth.Profile(context.Background(), e.userID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", got.Name)

	rec = e.do(t, http.MethodPatch, "/api/profile", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_ChangePassword(t *testing.T) {
	e := newEnv(t, nil)

	rec := e.do(t, http.MethodPost, "/api/password", `{"currentPassword":"wrong-one","newPassword":"new-password"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), msgWrongPassword)

	rec = e.do(t, http.MethodPost, "/api/password", `{"currentPassword":"password123","newPassword":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/password", `{"currentPassword":"password123","newPassword":"new-password"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := e.auth.Login(context.Background(), "a@example.com", "new-password")
	require.NoError(t, err)
	_, err = e.auth.Login(context.Background(), "a@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
