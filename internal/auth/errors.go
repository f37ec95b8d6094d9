// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already taken")

// ErrUnauthenticated is returned when a session token does not resolve to an
// identity. Invalid and expired tokens are deliberately indistinguishable.
var ErrUnauthenticated = errors.New("not authenticated")

// InvalidCredentialsError is returned on a failed login. The message is the
// same whether the username is unknown or the password is wrong, so callers
// cannot enumerate registered usernames.
type InvalidCredentialsError struct {
	// Remaining is the number of attempts left before the client is blocked.
	Remaining int
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid username or password"
}

// RateLimitedError is returned when a client has exhausted its login attempts.
type RateLimitedError struct {
	// RetryAfter is the time until the block expires.
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// WeakPasswordError is returned when a candidate password scores below the
// configured minimum strength at registration.
type WeakPasswordError struct {
	Level       int
	Suggestions []string
}

func (e *WeakPasswordError) Error() string {
	return "password is too weak"
}
