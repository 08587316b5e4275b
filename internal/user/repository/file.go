package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/filex"
	"github.com/klimov-rv/user-dashboard-backend/internal/user/domain"
)

// fileUser is the users.json record. The password verifier is stored under
// "password" as in existing data files.
type fileUser struct {
	ID        recordID  `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// recordID is a user id as stored in users.json. Older files carry numeric
// millisecond ids; those are read as their decimal string and written back as
// numbers.
type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = recordID(n.String())
	return nil
}

func (id recordID) MarshalJSON() ([]byte, error) {
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isDigits(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FileRepository stores all users in one JSON array file. Every call re-reads the
// file; the mutex serializes read-modify-write within the process.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository returns a repository over path. The file is created on first write.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// GetByID returns the user for id, or nil if not found.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *FileRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)
	for _, u := range users {
		if domain.NormalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return nil, nil
}

// List returns every stored user in file order.
func (r *FileRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// PersistAll rewrites the file with users.
func (r *FileRepository) PersistAll(ctx context.Context, users []*domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, users)
}

// Create appends u. Returns ErrDuplicateEmail if the email is taken.
func (r *FileRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	email := domain.NormalizeEmail(u.Email)
	for _, existing := range users {
		if domain.NormalizeEmail(existing.Email) == email {
			return ErrDuplicateEmail
		}
	}
	return r.save(ctx, append(users, u))
}

// Update replaces the stored user with u.ID. Returns ErrNotFound if absent.
func (r *FileRepository) Update(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i, existing := range users {
		if existing.ID == u.ID {
			users[i] = u
			return r.save(ctx, users)
		}
	}
	return ErrNotFound
}

func (r *FileRepository) load(ctx context.Context) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := filex.ReadOptional(r.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var recs []fileUser
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	out := make([]*domain.User, len(recs))
	for i, rec := range recs {
		out[i] = &domain.User{
			ID:           string(rec.ID),
			Email:        rec.Email,
			PasswordHash: rec.Password,
			Name:         rec.Name,
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
		}
	}
	return out, nil
}

func (r *FileRepository) save(ctx context.Context, users []*domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recs := make([]fileUser, len(users))
	for i, u := range users {
		recs[i] = fileUser{
			ID:        recordID(u.ID),
			Email:     u.Email,
			Password:  u.PasswordHash,
			Name:      u.Name,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return filex.WriteAtomic(r.path, append(data, '\n'), 0o600)
}
