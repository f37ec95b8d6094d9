// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

// Package memory provides in-memory repository implementations. State lives
// for the process lifetime only; there is no persistence across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
)

// IdentityRepository is a mutex-guarded in-memory auth.IdentityRepository.
type IdentityRepository struct {
	mu         sync.RWMutex
	byUsername map[string]*auth.Identity
}

// NewIdentityRepository creates an empty IdentityRepository.
func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byUsername: make(map[string]*auth.Identity),
	}
}

// Create stores a new identity. The existence check and insert happen under
// one lock, so concurrent registrations of the same username produce exactly
// one winner.
func (r *IdentityRepository) Create(_ context.Context, identity *auth.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[identity.Username]; exists {
		return auth.ErrUsernameTaken
	}

	stored := *identity
	r.byUsername[identity.Username] = &stored
	return nil
}

// GetByUsername retrieves an identity by exact, case-sensitive match.
func (r *IdentityRepository) GetByUsername(_ context.Context, username string) (*auth.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byUsername[username]
	if !ok {
		return nil, auth.ErrNotFound
	}

	// Callers get a copy, never the stored record.
	out := *identity
	return &out, nil
}

// Count returns the number of stored identities.
func (r *IdentityRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUsername), nil
}
