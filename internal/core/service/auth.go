package service

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/pkg/passhash"
	"github.com/yndnr/postvote-go/pkg/token"
)

// DefaultSessionTTL is how long a session token stays valid after login.
const DefaultSessionTTL = 7 * 24 * time.Hour

// AuthService registers users, issues session tokens and verifies them.
//
// Each user has a single active session. The plaintext token is returned to
// the caller once; only its salted hash is stored, and a candidate token is
// checked with the hasher's Verify against that hash.
type AuthService struct {
	repo       UserRepository
	hasher     passhash.Hasher
	sessionTTL time.Duration
	tokenBytes int
	now        func() time.Time
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	// SessionTTL is the session lifetime (default: 7 days).
	SessionTTL time.Duration

	// TokenBytes is the number of random bytes per session secret (default: 32).
	TokenBytes int

	// Hasher hashes passwords and session secrets (default: pbkdf2-sha256).
	Hasher passhash.Hasher

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// DefaultAuthServiceConfig returns default configuration.
func DefaultAuthServiceConfig() *AuthServiceConfig {
	hasher, _ := passhash.New(passhash.PBKDF2SHA256, passhash.Options{})
	return &AuthServiceConfig{
		SessionTTL: DefaultSessionTTL,
		TokenBytes: token.DefaultLength,
		Hasher:     hasher,
		Now:        time.Now,
	}
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo UserRepository, config *AuthServiceConfig) *AuthService {
	defaults := DefaultAuthServiceConfig()
	if config == nil {
		config = defaults
	}

	s := &AuthService{
		repo:       repo,
		hasher:     config.Hasher,
		sessionTTL: config.SessionTTL,
		tokenBytes: config.TokenBytes,
		now:        config.Now,
	}
	if s.hasher == nil {
		s.hasher = defaults.Hasher
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = defaults.SessionTTL
	}
	if s.tokenBytes < token.MinLength {
		s.tokenBytes = defaults.TokenBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ============================================================================
// Register / Login
// ============================================================================

// RegisterRequest contains parameters for registration.
type RegisterRequest struct {
	Email    string // Required
	Password string // Required
}

// LoginRequest contains parameters for login.
type LoginRequest struct {
	Email    string // Required
	Password string // Required
}

// SessionResponse is returned by Register and Login.
type SessionResponse struct {
	UserID    string // Account ID
	Token     string // Plaintext session token (only returned once)
	ExpiresAt int64  // Session expiry (Unix MS)
}

// Register creates an account and its first session.
//
// Fails with ErrUserAlreadyExists if the email is taken; the existing
// account is left untouched.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*SessionResponse, error) {
	// 1. Validate input
	if err := domain.ValidateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	// 2. Hash password
	user := domain.NewUser(req.Email)
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, domain.ErrInternalServer.WithCause(err)
	}
	user.PasswordHash = passwordHash

	// 3. Issue the first session
	plain, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	// 4. Persist (conditional on the email being free)
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, storageErr(err)
	}

	return &SessionResponse{
		UserID:    user.ID,
		Token:     plain,
		ExpiresAt: user.SessionExpiresAt,
	}, nil
}

// Login checks the password and replaces the user's session.
//
// The previously issued token stops verifying once Login returns.
// A concurrent login for the same account fails with ErrUserVersionConflict.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*SessionResponse, error) {
	email := domain.NormalizeEmail(req.Email)
	if email == "" {
		return nil, domain.ErrMissingArgument.WithDetails("email is required")
	}
	if req.Password == "" {
		return nil, domain.ErrMissingArgument.WithDetails("password is required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storageErr(err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	expected := user.Version
	plain, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(ctx, user, expected); err != nil {
		return nil, storageErr(err)
	}

	return &SessionResponse{
		UserID:    user.ID,
		Token:     plain,
		ExpiresAt: user.SessionExpiresAt,
	}, nil
}

// ============================================================================
// Verification
// ============================================================================

// Verify reports whether tok is the current, unexpired session token of
// userID. It fails closed and has no side effects.
func (s *AuthService) Verify(ctx context.Context, userID, tok string) bool {
	_, err := s.Authenticate(ctx, userID, tok)
	return err == nil
}

// Authenticate is the error-returning form of Verify.
//
// Returns ErrUnauthorized for missing credentials, an unknown user or a
// token that does not match, and ErrSessionExpired for a matching token
// whose session has expired. Storage failures are returned as is.
func (s *AuthService) Authenticate(ctx context.Context, userID, tok string) (*domain.User, error) {
	if userID == "" || tok == "" {
		return nil, domain.ErrUnauthorized.WithDetails("missing credentials")
	}
	if !token.IsWellFormed(tok) {
		return nil, domain.ErrUnauthorized.WithDetails("malformed session token")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized.WithDetails("unknown user")
	}
	if err != nil {
		return nil, storageErr(err)
	}

	if user.SessionSecretHash == "" || !s.hasher.Verify(tok, user.SessionSecretHash) {
		return nil, domain.ErrUnauthorized.WithDetails("invalid session token")
	}
	if user.SessionExpired(s.now()) {
		return nil, domain.ErrSessionExpired
	}
	return user, nil
}

// issueSession generates a new session secret for user, stores its hash and
// expiry on the user, and returns the plaintext secret.
func (s *AuthService) issueSession(user *domain.User) (string, error) {
	plain, err := token.GenerateWithLength(s.tokenBytes)
	if err != nil {
		return "", domain.ErrInternalServer.WithCause(err)
	}
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return "", domain.ErrInternalServer.WithCause(err)
	}

	user.SessionSecretHash = hash
	user.SessionExpiresAt = s.now().Add(s.sessionTTL).UnixMilli()
	return plain, nil
}

// storageErr passes domain errors through and wraps anything else.
func storageErr(err error) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}
