package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/storage/memory"
)

type postFixture struct {
	auth  *AuthService
	clock *testClock
	posts *memory.PostStore
	svc   *PostService
	alice *SessionResponse
	bob   *SessionResponse
}

func newPostFixture(t *testing.T, config *PostServiceConfig) *postFixture {
	t.Helper()
	auth, clock := newTestAuth(t, memory.NewUserStore())
	posts := memory.NewPostStore()
	return &postFixture{
		auth:  auth,
		clock: clock,
		posts: posts,
		svc:   NewPostService(posts, auth, config),
		alice: register(t, auth, "alice@x.com", "pw-alice"),
		bob:   register(t, auth, "bob@x.com", "pw-bob"),
	}
}

func (f *postFixture) createPost(t *testing.T) *domain.Post {
	t.Helper()
	post, err := f.svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID: f.alice.UserID,
		Token:  f.alice.Token,
		Title:  "hello",
		Body:   "first post",
	})
	require.NoError(t, err)
	return post
}

func (f *postFixture) vote(t *testing.T, who *SessionResponse, postID, dir string) *CastVoteResponse {
	t.Helper()
	resp, err := f.svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:    who.UserID,
		Token:     who.Token,
		PostID:    postID,
		Direction: dir,
	})
	require.NoError(t, err)
	return resp
}

func (f *postFixture) stored(t *testing.T, id string) *domain.Post {
	t.Helper()
	post, err := f.posts.GetPost(context.Background(), id)
	require.NoError(t, err)
	return post
}

// racingPostRepo runs race once, right before the first UpdatePost.
type racingPostRepo struct {
	PostRepository
	once sync.Once
	race func()
}

func (r *racingPostRepo) UpdatePost(ctx context.Context, p *domain.Post, expected uint64) error {
	r.once.Do(r.race)
	return r.PostRepository.UpdatePost(ctx, p, expected)
}

// alwaysConflictRepo loses every version race.
type alwaysConflictRepo struct {
	PostRepository
	calls int
}

func (r *alwaysConflictRepo) UpdatePost(context.Context, *domain.Post, uint64) error {
	r.calls++
	return domain.ErrPostVersionConflict
}

// countingPostRepo counts the posts that reach storage.
type countingPostRepo struct {
	PostRepository
	creates int
}

func (r *countingPostRepo) CreatePost(ctx context.Context, p *domain.Post) error {
	r.creates++
	return r.PostRepository.CreatePost(ctx, p)
}

func TestPostService_CreatePost(t *testing.T) {
	f := newPostFixture(t, nil)

	post := f.createPost(t)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "hello", post.Title)
	assert.Equal(t, "first post", post.Body)
	assert.Equal(t, f.alice.UserID, post.AuthorID)
	assert.Equal(t, []string{f.alice.UserID}, post.Upvoters)
	assert.Empty(t, post.Downvoters)

	got, err := f.svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Upvoters, got.Upvoters)
	assert.Equal(t, 1, got.Score())
}

func TestPostService_CreatePost_NoAutoUpvote(t *testing.T) {
	f := newPostFixture(t, &PostServiceConfig{AutoUpvoteAuthor: false})

	post := f.createPost(t)

	assert.Empty(t, post.Upvoters)
	assert.Empty(t, post.Downvoters)
}

func TestPostService_CreatePost_Errors(t *testing.T) {
	f := newPostFixture(t, nil)
	repo := &countingPostRepo{PostRepository: f.posts}
	svc := NewPostService(repo, f.auth, nil)

	tests := []struct {
		name    string
		req     CreatePostRequest
		wantErr *domain.DomainError
	}{
		{"wrong token", CreatePostRequest{UserID: f.alice.UserID, Token: f.bob.Token, Title: "t"}, domain.ErrUnauthorized},
		{"no credentials", CreatePostRequest{Title: "t"}, domain.ErrUnauthorized},
		{"empty title", CreatePostRequest{UserID: f.alice.UserID, Token: f.alice.Token, Title: "  "}, domain.ErrPostValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := svc.CreatePost(context.Background(), &tt.req)
			assert.Nil(t, post)
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
		})
	}
	assert.Zero(t, repo.creates)
}

func TestPostService_CreatePost_ExpiredSession(t *testing.T) {
	f := newPostFixture(t, nil)
	f.clock.Advance(DefaultSessionTTL + time.Second)

	_, err := f.svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID: f.alice.UserID,
		Token:  f.alice.Token,
		Title:  "late",
	})

	assert.Equal(t, domain.ErrUnauthorized.Code, domain.GetErrorCode(err))
	assert.True(t, errors.Is(err, domain.ErrSessionExpired), "err = %v", err)
}

func TestPostService_GetPost_NotFound(t *testing.T) {
	f := newPostFixture(t, nil)

	_, err := f.svc.GetPost(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrPostNotFound))

	_, err = f.svc.GetPost(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrMissingArgument))
}

func TestPostService_CastVote_ToggleOff(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)

	first := f.vote(t, f.bob, post.ID, "up")
	assert.Equal(t, domain.VoteStateUp, first.State)
	assert.Equal(t, 2, first.Upvotes)

	second := f.vote(t, f.bob, post.ID, "up")
	assert.Equal(t, domain.VoteStateNone, second.State)

	stored := f.stored(t, post.ID)
	assert.NotContains(t, stored.Upvoters, f.bob.UserID)
	assert.NotContains(t, stored.Downvoters, f.bob.UserID)
}

func TestPostService_CastVote_UpThenDown(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)

	f.vote(t, f.bob, post.ID, "up")
	resp := f.vote(t, f.bob, post.ID, "down")

	assert.Equal(t, domain.VoteStateDown, resp.State)
	assert.Equal(t, 1, resp.Upvotes)
	assert.Equal(t, 1, resp.Downvotes)

	stored := f.stored(t, post.ID)
	assert.Equal(t, []string{f.bob.UserID}, stored.Downvoters)
	assert.NotContains(t, stored.Upvoters, f.bob.UserID)
}

func TestPostService_CastVote_AuthorCanRetractAutoUpvote(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)

	resp := f.vote(t, f.alice, post.ID, "up")

	assert.Equal(t, domain.VoteStateNone, resp.State)
	assert.Zero(t, resp.Upvotes)
}

func TestPostService_CastVote_WrongTokenLeavesPostUnchanged(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)
	before := f.stored(t, post.ID)

	_, err := f.svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:    f.bob.UserID,
		Token:     f.alice.Token,
		PostID:    post.ID,
		Direction: "down",
	})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "err = %v", err)

	assert.Equal(t, before, f.stored(t, post.ID))
}

func TestPostService_CastVote_Errors(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)

	tests := []struct {
		name    string
		postID  string
		dir     string
		wantErr *domain.DomainError
	}{
		{"unknown post", "missing", "up", domain.ErrPostNotFound},
		{"bad direction", post.ID, "sideways", domain.ErrInvalidArgument},
		{"missing post id", "", "up", domain.ErrMissingArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CastVote(context.Background(), &CastVoteRequest{
				UserID:    f.bob.UserID,
				Token:     f.bob.Token,
				PostID:    tt.postID,
				Direction: tt.dir,
			})
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
		})
	}
}

func TestPostService_CastVote_RetriesLostRace(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)

	repo := &racingPostRepo{PostRepository: f.posts}
	repo.race = func() { f.vote(t, f.bob, post.ID, "down") }
	svc := NewPostService(repo, f.auth, nil)

	carol := register(t, f.auth, "carol@x.com", "pw-carol")
	resp, err := svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:    carol.UserID,
		Token:     carol.Token,
		PostID:    post.ID,
		Direction: "down",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteStateDown, resp.State)
	assert.Equal(t, 2, resp.Downvotes)

	stored := f.stored(t, post.ID)
	assert.ElementsMatch(t, []string{f.bob.UserID, carol.UserID}, stored.Downvoters)
}

func TestPostService_CastVote_GivesUp(t *testing.T) {
	f := newPostFixture(t, nil)
	post := f.createPost(t)

	repo := &alwaysConflictRepo{PostRepository: f.posts}
	svc := NewPostService(repo, f.auth, &PostServiceConfig{MaxVoteAttempts: 3})

	_, err := svc.CastVote(context.Background(), &CastVoteRequest{
		UserID:    f.bob.UserID,
		Token:     f.bob.Token,
		PostID:    post.ID,
		Direction: "up",
	})
	assert.True(t, errors.Is(err, domain.ErrPostVersionConflict), "err = %v", err)
	assert.Equal(t, 3, repo.calls)
}

func TestPostService_CastVote_Concurrent(t *testing.T) {
	f := newPostFixture(t, &PostServiceConfig{AutoUpvoteAuthor: false, MaxVoteAttempts: 100})
	post := f.createPost(t)

	const voters = 8
	sessions := make([]*SessionResponse, voters)
	for i := range sessions {
		sessions[i] = register(t, f.auth, fmt.Sprintf("voter%d@x.com", i), "pw")
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for _, s := range sessions {
		wg.Add(1)
		go func(s *SessionResponse) {
			defer wg.Done()
			_, err := f.svc.CastVote(context.Background(), &CastVoteRequest{
				UserID:    s.UserID,
				Token:     s.Token,
				PostID:    post.ID,
				Direction: "up",
			})
			errs <- err
		}(s)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	stored := f.stored(t, post.ID)
	assert.Len(t, stored.Upvoters, voters)
	assert.Equal(t, uint64(voters+1), stored.Version)
}
