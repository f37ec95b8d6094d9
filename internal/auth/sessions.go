// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// SessionManager issues, resolves, and destroys authenticated sessions.
// A session is Active from Create until Destroy or TTL expiry; there is no
// way back once destroyed.
type SessionManager struct {
	repo   SessionRepository
	ttl    time.Duration // zero disables expiry
	logger *slog.Logger
}

// NewSessionManager creates a SessionManager. A zero ttl means sessions live
// until logout or process exit.
func NewSessionManager(repo SessionRepository, ttl time.Duration) (*SessionManager, error) {
	if repo == nil {
		return nil, oops.Errorf("session repository is required")
	}
	if ttl < 0 {
		return nil, oops.With("ttl", ttl).Errorf("session TTL cannot be negative")
	}
	return &SessionManager{
		repo:   repo,
		ttl:    ttl,
		logger: slog.New(slog.DiscardHandler),
	}, nil
}

// NewSessionManagerWithLogger creates a SessionManager with the provided logger.
func NewSessionManagerWithLogger(repo SessionRepository, ttl time.Duration, logger *slog.Logger) (*SessionManager, error) {
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	m, err := NewSessionManager(repo, ttl)
	if err != nil {
		return nil, err
	}
	m.logger = logger
	return m, nil
}

// Create issues a new session for the username and returns the plaintext
// token to hand to the client.
func (m *SessionManager) Create(ctx context.Context, username string) (string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	var expiresAt time.Time
	if m.ttl > 0 {
		expiresAt = time.Now().Add(m.ttl)
	}

	session, err := NewSession(username, tokenHash, expiresAt)
	if err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").Wrap(err)
	}

	if err := m.repo.Create(ctx, session); err != nil {
		return "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	m.logger.Debug("session created",
		"session_id", session.ID.String(),
		"username", username,
	)
	return token, nil
}

// Resolve returns the username bound to a valid, unexpired token.
// Returns ErrUnauthenticated otherwise; invalid and expired tokens are
// indistinguishable to the caller.
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	tokenHash := HashSessionToken(token)

	session, err := m.repo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		// Evict eagerly so the sweep interval is never observable.
		_ = m.repo.DeleteByTokenHash(ctx, tokenHash) //nolint:errcheck // Best effort
		return "", ErrUnauthenticated
	}

	// Best effort; resolution succeeds regardless.
	_ = m.repo.TouchLastSeen(ctx, tokenHash, time.Now()) //nolint:errcheck

	return session.Username, nil
}

// Destroy invalidates the session for the token. Destroying an unknown or
// already-destroyed token is a success: logout is idempotent, and reporting
// "not found" would leak whether a session existed.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := m.repo.DeleteByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// SweepExpired removes expired sessions and returns the count removed.
// A no-op when no TTL is configured.
func (m *SessionManager) SweepExpired(ctx context.Context) (int, error) {
	if m.ttl == 0 {
		return 0, nil
	}

	count, err := m.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").Wrap(err)
	}
	if count > 0 {
		m.logger.Debug("expired sessions swept", "count", count)
	}
	return count, nil
}

// ActiveCount returns the number of stored sessions.
func (m *SessionManager) ActiveCount(ctx context.Context) (int, error) {
	count, err := m.repo.Count(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_COUNT_FAILED").Wrap(err)
	}
	return count, nil
}
