package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

// DefaultMaxVoteAttempts bounds the read-apply-write retries of CastVote.
const DefaultMaxVoteAttempts = 3

// Authenticator resolves a user id and session token into a user.
//
// *AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, userID, token string) (*domain.User, error)
}

// PostService creates posts and applies votes.
type PostService struct {
	repo        PostRepository
	auth        Authenticator
	autoUpvote  bool
	maxAttempts int
}

// PostServiceConfig holds configuration for PostService.
type PostServiceConfig struct {
	// AutoUpvoteAuthor records an upvote from the author on creation (default: true).
	AutoUpvoteAuthor bool

	// MaxVoteAttempts is how many times CastVote retries after losing a
	// version race (default: 3).
	MaxVoteAttempts int
}

// DefaultPostServiceConfig returns default configuration.
func DefaultPostServiceConfig() *PostServiceConfig {
	return &PostServiceConfig{
		AutoUpvoteAuthor: true,
		MaxVoteAttempts:  DefaultMaxVoteAttempts,
	}
}

// NewPostService creates a new PostService.
func NewPostService(repo PostRepository, auth Authenticator, config *PostServiceConfig) *PostService {
	if config == nil {
		config = DefaultPostServiceConfig()
	}
	attempts := config.MaxVoteAttempts
	if attempts <= 0 {
		attempts = DefaultMaxVoteAttempts
	}

	return &PostService{
		repo:        repo,
		auth:        auth,
		autoUpvote:  config.AutoUpvoteAuthor,
		maxAttempts: attempts,
	}
}

// ============================================================================
// Post Create / Get
// ============================================================================

// CreatePostRequest contains parameters for post creation.
type CreatePostRequest struct {
	UserID string // Author, required
	Token  string // Author's session token, required
	Title  string // Required, at most 300 characters
	Body   string // Optional
}

// CreatePost authenticates the author and stores a new post.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*domain.Post, error) {
	// 1. Authenticate
	if err := s.authorize(ctx, req.UserID, req.Token); err != nil {
		return nil, err
	}

	// 2. Build and validate
	post := domain.NewPost(req.Title, req.Body, req.UserID)
	if err := post.Validate(); err != nil {
		return nil, err
	}
	if s.autoUpvote {
		post.ApplyVote(req.UserID, domain.VoteUp)
	}

	// 3. Persist
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, storageErr(err)
	}
	return post, nil
}

// GetPost returns a post by ID. It requires no authentication.
func (s *PostService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("post id is required")
	}
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	return post, nil
}

// ============================================================================
// Voting
// ============================================================================

// CastVoteRequest contains parameters for a vote.
type CastVoteRequest struct {
	UserID    string // Voter, required
	Token     string // Voter's session token, required
	PostID    string // Required
	Direction string // "up" or "down"
}

// CastVoteResponse is the post's vote tally after the vote.
type CastVoteResponse struct {
	PostID    string
	State     domain.VoteState // Voter's standing after the toggle
	Upvotes   int
	Downvotes int
}

// CastVote applies the vote toggle for the caller on a post.
//
// A vote clears any opposite vote; repeating a vote withdraws it. The post
// is written with a version check and the whole read-apply-write is retried
// when another writer got there first.
func (s *PostService) CastVote(ctx context.Context, req *CastVoteRequest) (*CastVoteResponse, error) {
	if err := s.authorize(ctx, req.UserID, req.Token); err != nil {
		return nil, err
	}

	dir, err := domain.ParseVoteDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	if req.PostID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("post id is required")
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		post, err := s.repo.GetPost(ctx, req.PostID)
		if err != nil {
			return nil, storageErr(err)
		}

		expected := post.Version
		state := post.ApplyVote(req.UserID, dir)

		err = s.repo.UpdatePost(ctx, post, expected)
		if err == nil {
			return &CastVoteResponse{
				PostID:    post.ID,
				State:     state,
				Upvotes:   len(post.Upvoters),
				Downvotes: len(post.Downvoters),
			}, nil
		}
		if !errors.Is(err, domain.ErrPostVersionConflict) {
			return nil, storageErr(err)
		}
	}

	return nil, domain.ErrPostVersionConflict.WithDetails(
		fmt.Sprintf("gave up after %d attempts", s.maxAttempts),
	)
}

// authorize maps authentication failures to ErrUnauthorized. An expired
// session stays visible as the cause.
func (s *PostService) authorize(ctx context.Context, userID, token string) error {
	_, err := s.auth.Authenticate(ctx, userID, token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSessionExpired):
		return domain.ErrUnauthorized.WithDetails("session expired").WithCause(err)
	}
	return err
}
