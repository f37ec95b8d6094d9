// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
)

// SessionRepository is a mutex-guarded in-memory auth.SessionRepository,
// keyed by token hash.
type SessionRepository struct {
	mu          sync.RWMutex
	byTokenHash map[string]*auth.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byTokenHash: make(map[string]*auth.Session),
	}
}

// Create stores a new session.
func (r *SessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *session
	r.byTokenHash[session.TokenHash] = &stored
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byTokenHash[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}

	out := *session
	return &out, nil
}

// TouchLastSeen updates the LastSeenAt timestamp for a session.
func (r *SessionRepository) TouchLastSeen(_ context.Context, tokenHash string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byTokenHash[tokenHash]
	if !ok {
		return auth.ErrNotFound
	}
	session.LastSeenAt = lastSeen
	return nil
}

// DeleteByTokenHash removes a session.
func (r *SessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byTokenHash[tokenHash]; !ok {
		return auth.ErrNotFound
	}
	delete(r.byTokenHash, tokenHash)
	return nil
}

// DeleteExpired removes all sessions expired at the given time and returns
// the count of deleted records.
func (r *SessionRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for hash, session := range r.byTokenHash {
		if session.IsExpiredAt(now) {
			delete(r.byTokenHash, hash)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTokenHash), nil
}
