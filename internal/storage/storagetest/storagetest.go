// Package storagetest holds conformance tests shared by every repository backend.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/core/service"
)

// RunUserRepository exercises a UserRepository produced by newRepo.
// newRepo must return an empty repository on every call.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) service.UserRepository) {
	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		u := domain.NewUser("a@x.com")
		u.PasswordHash = "$hash"
		require.NoError(t, repo.CreateUser(ctx, u))

		byEmail, err := repo.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "$hash", byEmail.PasswordHash)
		assert.Equal(t, uint64(1), byEmail.Version)

		byID, err := repo.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
	})

	t.Run("CreateDuplicateEmail", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := domain.NewUser("a@x.com")
		first.PasswordHash = "first"
		require.NoError(t, repo.CreateUser(ctx, first))

		second := domain.NewUser("a@x.com")
		second.PasswordHash = "second"
		err := repo.CreateUser(ctx, second)
		assert.True(t, errors.Is(err, domain.ErrUserAlreadyExists), "err = %v", err)

		got, err := repo.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, "first", got.PasswordHash)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetUserByEmail(ctx, "nobody@x.com")
		assert.True(t, errors.Is(err, domain.ErrUserNotFound), "err = %v", err)

		_, err = repo.GetUserByID(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrUserNotFound), "err = %v", err)

		err = repo.UpdateUser(ctx, domain.NewUser("nobody@x.com"), 1)
		assert.True(t, errors.Is(err, domain.ErrUserNotFound), "err = %v", err)
	})

	t.Run("UpdateVersioned", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		u := domain.NewUser("a@x.com")
		require.NoError(t, repo.CreateUser(ctx, u))

		u.SessionSecretHash = "s1"
		require.NoError(t, repo.UpdateUser(ctx, u, 1))
		assert.Equal(t, uint64(2), u.Version)

		stale := u.Clone()
		stale.SessionSecretHash = "stale"
		err := repo.UpdateUser(ctx, stale, 1)
		assert.True(t, errors.Is(err, domain.ErrUserVersionConflict), "err = %v", err)

		got, err := repo.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "s1", got.SessionSecretHash)
		assert.Equal(t, uint64(2), got.Version)
	})
}

// RunPostRepository exercises a PostRepository produced by newRepo.
func RunPostRepository(t *testing.T, newRepo func(t *testing.T) service.PostRepository) {
	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := domain.NewPost("title", "body", "u1")
		p.ApplyVote("u1", domain.VoteUp)
		require.NoError(t, repo.CreatePost(ctx, p))

		got, err := repo.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "title", got.Title)
		assert.Equal(t, "body", got.Body)
		assert.Equal(t, []string{"u1"}, got.Upvoters)
		assert.Empty(t, got.Downvoters)
		assert.Equal(t, uint64(1), got.Version)

		err = repo.CreatePost(ctx, p)
		assert.True(t, errors.Is(err, domain.ErrPostConflict), "err = %v", err)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.GetPost(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrPostNotFound), "err = %v", err)

		err = repo.UpdatePost(ctx, domain.NewPost("t", "", "u1"), 1)
		assert.True(t, errors.Is(err, domain.ErrPostNotFound), "err = %v", err)
	})

	t.Run("UpdateVersioned", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := domain.NewPost("t", "", "u1")
		require.NoError(t, repo.CreatePost(ctx, p))

		p.ApplyVote("u2", domain.VoteDown)
		require.NoError(t, repo.UpdatePost(ctx, p, 1))
		assert.Equal(t, uint64(2), p.Version)

		err := repo.UpdatePost(ctx, p, 1)
		assert.True(t, errors.Is(err, domain.ErrPostVersionConflict), "err = %v", err)

		got, err := repo.GetPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, got.Downvoters)
	})

	t.Run("ConcurrentUpdatesSerialize", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		p := domain.NewPost("t", "", "u1")
		require.NoError(t, repo.CreatePost(ctx, p))

		const writers = 8
		var wg sync.WaitGroup
		var wins atomic.Int32
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cp := p.Clone()
				cp.ApplyVote("voter", domain.VoteUp)
				if err := repo.UpdatePost(ctx, cp, 1); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load(), "exactly one writer may win the version race")
	})
}
