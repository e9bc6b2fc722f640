package memory

import (
	"context"
	"sync"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

// UserStore provides in-memory storage for users.
type UserStore struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
	idIndex map[string]string // user ID -> email
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byEmail: make(map[string]*domain.User),
		idIndex: make(map[string]string),
	}
}

// CreateUser stores a user unless the email is taken.
func (s *UserStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return domain.ErrUserAlreadyExists
	}
	if _, exists := s.idIndex[user.ID]; exists {
		return domain.ErrUserAlreadyExists.WithDetails("user id collision")
	}

	s.byEmail[user.Email] = user.Clone()
	s.idIndex[user.ID] = user.Email
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *UserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

// GetUserByID retrieves a user by ID.
func (s *UserStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.idIndex[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.byEmail[email].Clone(), nil
}

// UpdateUser replaces a user with optimistic locking.
// Email and ID are immutable and identify the record.
func (s *UserStore) UpdateUser(_ context.Context, user *domain.User, expectedVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byEmail[user.Email]
	if !ok || existing.ID != user.ID {
		return domain.ErrUserNotFound
	}
	if existing.Version != expectedVersion {
		return domain.ErrUserVersionConflict
	}

	clone := user.Clone()
	clone.Version = expectedVersion + 1
	s.byEmail[user.Email] = clone

	user.Version = clone.Version
	return nil
}
