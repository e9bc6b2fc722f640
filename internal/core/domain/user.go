package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User constraints.
const (
	MaxEmailLength    = 254
	MinPasswordLength = 1
	MaxPasswordLength = 1024
)

// User is a registered account together with its single active session.
//
// Only hashes are stored. The session secret handed to the client is never
// persisted in plaintext, and issuing a new one replaces the previous hash.
type User struct {
	// ID is the opaque account identifier (UUID).
	ID string `json:"id" dynamodbav:"id"`

	// Email is the normalized login name and the account's unique key.
	Email string `json:"email" dynamodbav:"email"`

	// PasswordHash is the modular-crypt hash of the password.
	PasswordHash string `json:"password_hash" dynamodbav:"password_hash"`

	// SessionSecretHash is the modular-crypt hash of the current session secret.
	SessionSecretHash string `json:"session_secret_hash" dynamodbav:"session_secret_hash"`

	// SessionExpiresAt is the session expiry (Unix milliseconds).
	SessionExpiresAt int64 `json:"session_expires_at" dynamodbav:"session_expires_at"`

	// CreatedAt is the registration timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at" dynamodbav:"created_at"`

	// Version is the optimistic lock version number.
	Version uint64 `json:"version" dynamodbav:"version"`
}

// NewUser creates a User with a generated ID for the given email.
// The email is normalized; no hashes are set.
func NewUser(email string) *User {
	return &User{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		CreatedAt: time.Now().UnixMilli(),
		Version:   1,
	}
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials checks an email/password pair before registration or login.
func ValidateCredentials(email, password string) error {
	email = NormalizeEmail(email)
	switch {
	case email == "":
		return ErrMissingArgument.WithDetails("email is required")
	case len(email) > MaxEmailLength:
		return ErrInvalidArgument.WithDetails("email exceeds 254 characters")
	case !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		return ErrInvalidArgument.WithDetails("email is malformed")
	case len(password) < MinPasswordLength:
		return ErrMissingArgument.WithDetails("password is required")
	case len(password) > MaxPasswordLength:
		return ErrInvalidArgument.WithDetails("password exceeds 1024 bytes")
	}
	return nil
}

// SessionExpired reports whether the current session has expired at now.
// The session is still live at the exact expiry millisecond and expired
// once now is past it. A user that never had a session is treated as expired.
func (u *User) SessionExpired(now time.Time) bool {
	if u.SessionExpiresAt == 0 {
		return true
	}
	return now.UnixMilli() > u.SessionExpiresAt
}

// IncrVersion increments the version number for optimistic locking.
func (u *User) IncrVersion() {
	u.Version++
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
