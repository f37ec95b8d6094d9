// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

// Package auth implements the credential authentication core: password
// hashing, the credential store contract, session lifecycle, per-client
// login throttling, and the service orchestrating them.
//
// # Domain Types
//
// Identity and Session should be created through their constructors
// (NewIdentity, NewSession); direct struct initialization bypasses
// validation. Repository implementations receive pre-validated values.
//
// # Services
//
// Service coordinates registration and login over the injected components.
// SessionManager owns session issue/resolve/destroy. Throttle owns the
// per-client failure windows. All expected outcomes (duplicate username,
// weak password, bad credentials, rate limiting, missing session) are typed
// errors, never panics.
package auth
