// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that start with a letter and contain only
// letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Identity is a registered account: a username bound to a password hash.
// Identities are immutable once created and live for the process lifetime.
type Identity struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewIdentity creates a validated Identity. The password hash must already be
// computed; plaintext passwords never reach this type.
func NewIdentity(username, passwordHash string) (*Identity, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_EMPTY_HASH").Errorf("password hash cannot be empty")
	}

	return &Identity{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateUsername validates a username against rules:
//   - Length: MinUsernameLength to MaxUsernameLength characters
//   - Must start with a letter
//   - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
//
// Usernames are case-sensitive: "Alice" and "alice" are distinct identities.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// IdentityRepository manages identity persistence.
type IdentityRepository interface {
	// Create stores a new identity. Returns ErrUsernameTaken if the
	// username already exists; under concurrent registration of the same
	// username exactly one Create succeeds.
	Create(ctx context.Context, identity *Identity) error

	// GetByUsername retrieves an identity by exact, case-sensitive
	// username match. Returns ErrNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*Identity, error)
}
