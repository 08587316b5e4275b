package repository

import (
	"context"
	"errors"

	"github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
)

var (
	// ErrDuplicateEmail is returned by Create when the login identifier is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned by Update when no user has the given ID.
	ErrNotFound = errors.New("user not found")
)

// Repository defines persistence for users. Lookups return (nil, nil) when no user matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// PersistAll replaces the stored user set with users.
	PersistAll(ctx context.Context, users []*domain.User) error
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
}
