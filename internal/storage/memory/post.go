package memory

import (
	"context"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/pkg/cmap"
)

// PostStore provides in-memory storage for posts.
type PostStore struct {
	posts *cmap.Map[string, *domain.Post]
}

// NewPostStore creates an empty post store.
func NewPostStore() *PostStore {
	return &PostStore{posts: cmap.New[string, *domain.Post]()}
}

// CreatePost stores a new post.
func (s *PostStore) CreatePost(_ context.Context, post *domain.Post) error {
	if !s.posts.SetIfAbsent(post.ID, post.Clone()) {
		return domain.ErrPostConflict
	}
	return nil
}

// GetPost retrieves a post by ID.
func (s *PostStore) GetPost(_ context.Context, id string) (*domain.Post, error) {
	post, ok := s.posts.Get(id)
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return post.Clone(), nil
}

// UpdatePost replaces a post with optimistic locking.
func (s *PostStore) UpdatePost(_ context.Context, post *domain.Post, expectedVersion uint64) error {
	clone := post.Clone()
	if !cmap.CompareAndSwap(s.posts, post.ID, expectedVersion, clone) {
		if _, ok := s.posts.Get(post.ID); !ok {
			return domain.ErrPostNotFound
		}
		return domain.ErrPostVersionConflict
	}

	post.Version = clone.Version
	return nil
}
