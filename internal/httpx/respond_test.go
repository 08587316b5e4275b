package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klimov-rv/user-dashboard-backend/internal/session"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"email":"a@example.com","password":"password1"}`, ""},
		{"empty", ``, ErrEmptyBody.Error()},
		{"malformed", `{"email":`, "invalid request body"},
		{"missing email", `{"password":"password1"}`, "email is required"},
		{"bad email", `{"email":"nope","password":"password1"}`, "email must be a valid email address"},
		{"short password", `{"email":"a@example.com","password":"short"}`, "password must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v loginBody
			err := Decode(r, &v)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "a@example.com", v.Email)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAuthError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	require.True(t, AuthError(w, r, session.ErrSessionRevoked))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "session_revoked", body.Code)
	assert.Equal(t, "Session has ended. Sign in again.", body.Message)

	w = httptest.NewRecorder()
	assert.False(t, AuthError(w, r, errors.New("other")))
	assert.Equal(t, 0, w.Body.Len())
}

func TestInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, w.Body.String())
}
