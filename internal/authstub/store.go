package authstub

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"loginprobe/pkg/errors"
)

// User is an account known to the stub. PasswordHash never leaves the package.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository looks users up by email.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// MemoryStore is an in-process Repository. Emails are matched case-insensitively.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[uuid.UUID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]*User),
		byID:    make(map[uuid.UUID]*User),
	}
}

// Add hashes password and stores a new user.
func (s *MemoryStore) Add(email, password, name, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
	return u, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
