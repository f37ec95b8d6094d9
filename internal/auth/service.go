// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// DefaultMinPasswordStrength is the minimum Strength.Level accepted at
// registration when a strength evaluator is configured.
const DefaultMinPasswordStrength = 3

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates registration, login, session checks, and logout.
// It owns no state of its own; identities, sessions, and attempt windows
// belong to the injected components.
type Service struct {
	identities  IdentityRepository
	sessions    *SessionManager
	hasher      PasswordHasher
	throttle    *Throttle
	strength    StrengthEvaluator // nil disables the strength policy
	minStrength int
	logger      *slog.Logger
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithStrengthPolicy enables the password strength gate at registration.
// Candidates scoring below minLevel are rejected with WeakPasswordError.
func WithStrengthPolicy(evaluator StrengthEvaluator, minLevel int) ServiceOption {
	return func(s *Service) {
		s.strength = evaluator
		s.minStrength = minLevel
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service. Returns an error if any required dependency
// is nil.
func NewService(identities IdentityRepository, sessions *SessionManager, hasher PasswordHasher, throttle *Throttle, opts ...ServiceOption) (*Service, error) {
	if identities == nil {
		return nil, oops.Errorf("identity repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if throttle == nil {
		return nil, oops.Errorf("attempt throttle is required")
	}

	s := &Service{
		identities:  identities,
		sessions:    sessions,
		hasher:      hasher,
		throttle:    throttle,
		minStrength: DefaultMinPasswordStrength,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Errorf("logger cannot be nil")
	}
	return s, nil
}

// Register creates a new identity. Fails with WeakPasswordError if the
// strength policy rejects the password, or ErrUsernameTaken if the username
// exists. Under concurrent registration of the same username exactly one
// caller wins; the loser's ErrUsernameTaken is the correct outcome, not a
// spurious one, so retries are safe.
func (s *Service) Register(ctx context.Context, username, password string) (*Identity, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	if s.strength != nil && s.minStrength > 0 {
		result := s.strength.Score(password)
		if result.Level < s.minStrength {
			s.logger.Debug("registration rejected by strength policy",
				"username", username,
				"level", result.Level,
				"min_level", s.minStrength,
			)
			return nil, &WeakPasswordError{Level: result.Level, Suggestions: result.Suggestions}
		}
	}

	// Early duplicate check so the common case skips the expensive hash.
	// The repository's atomic Create below is what actually guarantees
	// uniqueness under concurrency.
	if _, err := s.identities.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get identity by username").
			Wrap(err)
	}

	// Hashing is CPU-bound and intentionally slow; no store lock is held
	// here, only inside the repository calls.
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	identity, err := NewIdentity(username, hash)
	if err != nil {
		return nil, err
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "persist identity").
			Wrap(err)
	}

	s.logger.Info("identity registered", "username", username, "id", identity.ID.String())
	return identity, nil
}

// Login authenticates a user and returns a session token. clientKey
// identifies the caller's network origin for throttling.
//
// A blocked client is rejected before credentials are examined, so correct
// credentials do not bypass the block. Unknown usernames and wrong passwords
// are throttled and reported identically; a verification against a dummy
// hash keeps the unknown-username path as slow as the mismatch path.
func (s *Service) Login(ctx context.Context, clientKey, username, password string) (string, error) {
	if s.throttle.IsBlocked(clientKey) {
		retryAfter := s.throttle.RetryAfter(clientKey)
		s.logger.Info("login blocked by throttle",
			"client_key", clientKey,
			"retry_after", retryAfter,
		)
		return "", &RateLimitedError{RetryAfter: retryAfter}
	}

	identity, lookupErr := s.identities.GetByUsername(ctx, username)

	targetHash := dummyPasswordHash
	identityExists := false
	switch {
	case lookupErr == nil:
		targetHash = identity.PasswordHash
		identityExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Fall through to the dummy-hash verification.
	default:
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get identity by username").
			Wrap(lookupErr)
	}

	// Always verify, against the dummy hash if needed. This runs without
	// holding any store lock.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && identityExists {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !identityExists || !valid {
		count := s.throttle.RecordFailure(clientKey)
		remaining := s.throttle.MaxAttempts() - count
		if remaining < 0 {
			remaining = 0
		}
		s.logger.Info("login failed",
			"client_key", clientKey,
			"remaining_attempts", remaining,
		)
		return "", &InvalidCredentialsError{Remaining: remaining}
	}

	s.throttle.RecordSuccess(clientKey)

	token, err := s.sessions.Create(ctx, username)
	if err != nil {
		// The throttle reset above is not rolled back; login is retryable.
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	s.logger.Info("login succeeded", "username", username)
	return token, nil
}

// CheckAccess returns the username bound to a valid session token, or
// ErrUnauthenticated.
func (s *Service) CheckAccess(ctx context.Context, token string) (string, error) {
	return s.sessions.Resolve(ctx, token)
}

// Logout destroys the session for the token. Idempotent: logging out an
// unknown or already-destroyed token succeeds.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
