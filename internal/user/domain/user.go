package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is a registered account. PasswordHash is a bcrypt verifier and never leaves
// the service boundary.
type User struct {
	ID           string
	Email        string
	PasswordHash string `json:"-"`
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the outward view of a User.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Profile returns the user without its password verifier.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NormalizeEmail trims and lower-cases a login identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address (no display name).
func ValidEmail(email string) bool {
	a, err := mail.ParseAddress(email)
	return err == nil && a.Address == email
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	switch {
	case u.ID == "":
		return errors.New("id is required")
	case u.Email == "":
		return errors.New("email is required")
	case u.PasswordHash == "":
		return errors.New("password hash is required")
	case strings.TrimSpace(u.Name) == "":
		return errors.New("name is required")
	}
	return nil
}
