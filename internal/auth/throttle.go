// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth

import (
	"sync"
	"time"
)

// Throttle defaults.
const (
	// DefaultMaxAttempts is the number of failures that triggers a block.
	DefaultMaxAttempts = 5

	// DefaultAttemptWindow is how long failures accumulate toward a block,
	// and how long a block lasts once triggered.
	DefaultAttemptWindow = 15 * time.Minute
)

// attemptWindow tracks the failures of one client within a fixed window
// anchored at the first failure.
type attemptWindow struct {
	failures    int
	windowStart time.Time
}

func (w *attemptWindow) expiresAt(window time.Duration) time.Time {
	return w.windowStart.Add(window)
}

// Throttle tracks failed login attempts per client key (typically the remote
// IP) within a fixed window. Once a client reaches the attempt limit it stays
// blocked until the window expires; further failures saturate rather than
// extend the block.
type Throttle struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	attempts    map[string]*attemptWindow

	// now is replaceable for deterministic expiry tests.
	now func() time.Time
}

// NewThrottle creates a Throttle. Non-positive maxAttempts or window fall
// back to the defaults.
func NewThrottle(maxAttempts int, window time.Duration) *Throttle {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultAttemptWindow
	}
	return &Throttle{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string]*attemptWindow),
		now:         time.Now,
	}
}

// NewThrottleWithClock creates a Throttle with a custom time source for
// deterministic expiry tests.
func NewThrottleWithClock(maxAttempts int, window time.Duration, now func() time.Time) *Throttle {
	t := NewThrottle(maxAttempts, window)
	if now != nil {
		t.now = now
	}
	return t
}

// MaxAttempts returns the configured attempt limit.
func (t *Throttle) MaxAttempts() int {
	return t.maxAttempts
}

// RecordFailure counts a failed attempt for the client and returns the
// failure count in the active window. The first failure (or the first after
// the previous window expired) starts a new window. The count saturates at
// the attempt limit.
func (t *Throttle) RecordFailure(clientKey string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	w, ok := t.attempts[clientKey]
	if !ok || !now.Before(w.expiresAt(t.window)) {
		t.attempts[clientKey] = &attemptWindow{failures: 1, windowStart: now}
		return 1
	}

	if w.failures < t.maxAttempts {
		w.failures++
	}
	return w.failures
}

// RecordSuccess clears the client's failure window.
func (t *Throttle) RecordSuccess(clientKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.attempts, clientKey)
}

// IsBlocked reports whether the client has reached the attempt limit within
// an unexpired window.
func (t *Throttle) IsBlocked(clientKey string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.active(clientKey)
	return ok && w.failures >= t.maxAttempts
}

// Remaining returns max(0, limit - failures) for the client's active window,
// or the full limit if no window is active. Informational only.
func (t *Throttle) Remaining(clientKey string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.active(clientKey)
	if !ok {
		return t.maxAttempts
	}
	if remaining := t.maxAttempts - w.failures; remaining > 0 {
		return remaining
	}
	return 0
}

// RetryAfter returns the time until the client's window expires, or zero if
// no window is active.
func (t *Throttle) RetryAfter(clientKey string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.active(clientKey)
	if !ok {
		return 0
	}
	return w.expiresAt(t.window).Sub(t.now())
}

// Sweep evicts all expired windows and returns the number evicted. Expired
// windows are also dropped lazily on access; Sweep bounds memory for clients
// that never come back.
func (t *Throttle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	evicted := 0
	for key, w := range t.attempts {
		if !now.Before(w.expiresAt(t.window)) {
			delete(t.attempts, key)
			evicted++
		}
	}
	return evicted
}

// active returns the client's window if it has not expired, dropping it
// otherwise. Caller must hold t.mu.
func (t *Throttle) active(clientKey string) (*attemptWindow, bool) {
	w, ok := t.attempts[clientKey]
	if !ok {
		return nil, false
	}
	if !t.now().Before(w.expiresAt(t.window)) {
		delete(t.attempts, clientKey)
		return nil, false
	}
	return w, true
}
