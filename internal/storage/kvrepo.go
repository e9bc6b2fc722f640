package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

// Key layout.
const (
	userEmailPrefix = "user/email/"
	userIDPrefix    = "user/id/"
	postPrefix      = "post/"
)

// createAttempts bounds retries of conditional creates that lost a
// transaction race; the retry observes the winner and reports a conflict.
const createAttempts = 3

// KVUserStore stores users in a KVEngine.
//
// A user is stored as JSON under user/email/<email>; user/id/<id> holds the
// email, so lookups by ID take two reads.
type KVUserStore struct {
	kv KVEngine
}

// NewKVUserStore creates a user repository over kv.
func NewKVUserStore(kv KVEngine) *KVUserStore {
	return &KVUserStore{kv: kv}
}

// CreateUser stores a user unless the email or ID is taken.
func (s *KVUserStore) CreateUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	return retryConflicts(func() error {
		return s.kv.Update(ctx, func(txn KVTxn) error {
			if exists, err := hasKey(txn, userEmailKey(user.Email)); err != nil || exists {
				return orConflict(err, domain.ErrUserAlreadyExists)
			}
			if exists, err := hasKey(txn, userIDKey(user.ID)); err != nil || exists {
				return orConflict(err, domain.ErrUserAlreadyExists.WithDetails("user id collision"))
			}
			if err := txn.Set(userEmailKey(user.Email), data); err != nil {
				return err
			}
			return txn.Set(userIDKey(user.ID), []byte(user.Email))
		})
	})
}

// GetUserByEmail retrieves a user by email.
func (s *KVUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	data, err := s.kv.Get(ctx, userEmailKey(email))
	if err != nil {
		return nil, mapKVError(err, domain.ErrUserNotFound)
	}
	return decodeUser(data)
}

// GetUserByID retrieves a user by ID.
func (s *KVUserStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	email, err := s.kv.Get(ctx, userIDKey(id))
	if err != nil {
		return nil, mapKVError(err, domain.ErrUserNotFound)
	}
	return s.GetUserByEmail(ctx, string(email))
}

// UpdateUser replaces a user with optimistic locking.
func (s *KVUserStore) UpdateUser(ctx context.Context, user *domain.User, expectedVersion uint64) error {
	next := user.Clone()
	next.Version = expectedVersion + 1
	data, err := json.Marshal(next)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.Update(ctx, func(txn KVTxn) error {
		raw, err := txn.Get(userEmailKey(user.Email))
		if err != nil {
			return err
		}
		current, err := decodeUser(raw)
		if err != nil {
			return err
		}
		if current.ID != user.ID {
			return domain.ErrUserNotFound
		}
		if current.Version != expectedVersion {
			return domain.ErrUserVersionConflict
		}
		return txn.Set(userEmailKey(user.Email), data)
	})
	if err != nil {
		if errors.Is(err, ErrTxnConflict) {
			return domain.ErrUserVersionConflict
		}
		return mapKVError(err, domain.ErrUserNotFound)
	}

	user.Version = next.Version
	return nil
}

// KVPostStore stores posts as JSON under post/<id> in a KVEngine.
type KVPostStore struct {
	kv KVEngine
}

// NewKVPostStore creates a post repository over kv.
func NewKVPostStore(kv KVEngine) *KVPostStore {
	return &KVPostStore{kv: kv}
}

// CreatePost stores a new post.
func (s *KVPostStore) CreatePost(ctx context.Context, post *domain.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	return retryConflicts(func() error {
		return s.kv.Update(ctx, func(txn KVTxn) error {
			if exists, err := hasKey(txn, postKey(post.ID)); err != nil || exists {
				return orConflict(err, domain.ErrPostConflict)
			}
			return txn.Set(postKey(post.ID), data)
		})
	})
}

// GetPost retrieves a post by ID.
func (s *KVPostStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	data, err := s.kv.Get(ctx, postKey(id))
	if err != nil {
		return nil, mapKVError(err, domain.ErrPostNotFound)
	}
	return decodePost(data)
}

// UpdatePost replaces a post with optimistic locking.
func (s *KVPostStore) UpdatePost(ctx context.Context, post *domain.Post, expectedVersion uint64) error {
	next := post.Clone()
	next.Version = expectedVersion + 1
	data, err := json.Marshal(next)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}

	err = s.kv.Update(ctx, func(txn KVTxn) error {
		raw, err := txn.Get(postKey(post.ID))
		if err != nil {
			return err
		}
		current, err := decodePost(raw)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return domain.ErrPostVersionConflict
		}
		return txn.Set(postKey(post.ID), data)
	})
	if err != nil {
		if errors.Is(err, ErrTxnConflict) {
			return domain.ErrPostVersionConflict
		}
		return mapKVError(err, domain.ErrPostNotFound)
	}

	post.Version = next.Version
	return nil
}

func userEmailKey(email string) []byte { return []byte(userEmailPrefix + email) }
func userIDKey(id string) []byte       { return []byte(userIDPrefix + id) }
func postKey(id string) []byte         { return []byte(postPrefix + id) }

func decodeUser(data []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt user record").WithCause(err)
	}
	return &u, nil
}

func decodePost(data []byte) (*domain.Post, error) {
	var p domain.Post
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt post record").WithCause(err)
	}
	if p.Upvoters == nil {
		p.Upvoters = []string{}
	}
	if p.Downvoters == nil {
		p.Downvoters = []string{}
	}
	return &p, nil
}

func hasKey(txn KVTxn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrKeyNotFound):
		return false, nil
	}
	return false, err
}

// orConflict returns err if set, otherwise conflict.
func orConflict(err error, conflict error) error {
	if err != nil {
		return err
	}
	return conflict
}

func retryConflicts(fn func() error) error {
	var err error
	for i := 0; i < createAttempts; i++ {
		if err = fn(); !errors.Is(err, ErrTxnConflict) {
			break
		}
	}
	if err == nil || domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}

// mapKVError converts engine errors into domain errors.
func mapKVError(err error, notFound *domain.DomainError) error {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return notFound
	case domain.IsDomainError(err, ""):
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
