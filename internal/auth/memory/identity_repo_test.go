// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
	"github.com/hanfeyyap/secure-auth-demo/internal/auth/memory"
)

func newIdentity(t *testing.T, username string) *auth.Identity {
	t.Helper()
	identity, err := auth.NewIdentity(username, "$argon2id$fakehash")
	require.NoError(t, err)
	return identity
}

func TestIdentityRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and retrieves", func(t *testing.T) {
		repo := memory.NewIdentityRepository()
		identity := newIdentity(t, "alice")

		require.NoError(t, repo.Create(ctx, identity))

		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, identity.ID, got.ID)
		assert.Equal(t, identity.PasswordHash, got.PasswordHash)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		repo := memory.NewIdentityRepository()
		require.NoError(t, repo.Create(ctx, newIdentity(t, "alice")))

		err := repo.Create(ctx, newIdentity(t, "alice"))
		assert.ErrorIs(t, err, auth.ErrUsernameTaken)
	})

	t.Run("exact case-sensitive match", func(t *testing.T) {
		repo := memory.NewIdentityRepository()
		require.NoError(t, repo.Create(ctx, newIdentity(t, "alice")))

		_, err := repo.GetByUsername(ctx, "Alice")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("concurrent creates of the same username: one winner", func(t *testing.T) {
		repo := memory.NewIdentityRepository()

		const attempts = 50
		identities := make([]*auth.Identity, attempts)
		for i := range identities {
			identities[i] = newIdentity(t, "contested")
		}

		errs := make(chan error, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(identity *auth.Identity) {
				defer wg.Done()
				errs <- repo.Create(ctx, identity)
			}(identities[i])
		}
		wg.Wait()
		close(errs)

		wins := 0
		for err := range errs {
			if err == nil {
				wins++
			} else if !errors.Is(err, auth.ErrUsernameTaken) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
	})
}

func TestIdentityRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewIdentityRepository()

	t.Run("missing username", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newIdentity(t, "alice")))

		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		got.PasswordHash = "tampered"

		again, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$fakehash", again.PasswordHash)
	})
}
