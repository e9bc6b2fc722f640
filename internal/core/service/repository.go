package service

import (
	"context"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

// UserRepository is the credential store.
//
// Implementations return domain errors: ErrUserNotFound for a missing
// record, ErrUserAlreadyExists when creating a taken email, and
// ErrUserVersionConflict when an update loses an optimistic lock race.
type UserRepository interface {
	// CreateUser stores a new user if no user with the same email exists.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByEmail retrieves a user by normalized email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	// UpdateUser replaces the stored user if its version equals
	// expectedVersion. On success user.Version is expectedVersion+1.
	UpdateUser(ctx context.Context, user *domain.User, expectedVersion uint64) error
}

// PostRepository is the post store.
//
// Implementations return ErrPostNotFound, ErrPostConflict and
// ErrPostVersionConflict with the same meaning as UserRepository.
type PostRepository interface {
	// CreatePost stores a new post.
	CreatePost(ctx context.Context, post *domain.Post) error

	// GetPost retrieves a post by ID.
	GetPost(ctx context.Context, id string) (*domain.Post, error)

	// UpdatePost replaces the stored post if its version equals
	// expectedVersion. On success post.Version is expectedVersion+1.
	UpdatePost(ctx context.Context, post *domain.Post, expectedVersion uint64) error
}
