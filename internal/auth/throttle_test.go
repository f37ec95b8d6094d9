// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
)

func TestThrottle_RecordFailure(t *testing.T) {
	t.Run("counts failures within the window", func(t *testing.T) {
		throttle := auth.NewThrottle(5, 15*time.Minute)

		for i := 1; i <= 5; i++ {
			assert.Equal(t, i, throttle.RecordFailure("1.2.3.4"))
		}
	})

	t.Run("saturates at the limit", func(t *testing.T) {
		throttle := auth.NewThrottle(3, 15*time.Minute)

		throttle.RecordFailure("1.2.3.4")
		throttle.RecordFailure("1.2.3.4")
		throttle.RecordFailure("1.2.3.4")
		assert.Equal(t, 3, throttle.RecordFailure("1.2.3.4"))
		assert.Equal(t, 3, throttle.RecordFailure("1.2.3.4"))
	})

	t.Run("clients are tracked independently", func(t *testing.T) {
		throttle := auth.NewThrottle(5, 15*time.Minute)

		throttle.RecordFailure("1.2.3.4")
		throttle.RecordFailure("1.2.3.4")
		assert.Equal(t, 1, throttle.RecordFailure("5.6.7.8"))
	})

	t.Run("a failure after expiry starts a fresh window", func(t *testing.T) {
		now := time.Now()
		throttle := auth.NewThrottleWithClock(5, 15*time.Minute, func() time.Time { return now })

		throttle.RecordFailure("1.2.3.4")
		throttle.RecordFailure("1.2.3.4")

		now = now.Add(15*time.Minute + time.Second)
		assert.Equal(t, 1, throttle.RecordFailure("1.2.3.4"))
	})
}

func TestThrottle_IsBlocked(t *testing.T) {
	t.Run("blocks at the limit", func(t *testing.T) {
		throttle := auth.NewThrottle(5, 15*time.Minute)

		for i := 0; i < 4; i++ {
			throttle.RecordFailure("1.2.3.4")
			assert.False(t, throttle.IsBlocked("1.2.3.4"))
		}
		throttle.RecordFailure("1.2.3.4")
		assert.True(t, throttle.IsBlocked("1.2.3.4"))
	})

	t.Run("further failures do not extend the block", func(t *testing.T) {
		now := time.Now()
		throttle := auth.NewThrottleWithClock(2, 10*time.Minute, func() time.Time { return now })

		throttle.RecordFailure("1.2.3.4")
		throttle.RecordFailure("1.2.3.4")
		assert.True(t, throttle.IsBlocked("1.2.3.4"))

		now = now.Add(5 * time.Minute)
		throttle.RecordFailure("1.2.3.4") // saturates, window start unchanged
		now = now.Add(5*time.Minute + time.Second)
		assert.False(t, throttle.IsBlocked("1.2.3.4"))
	})

	t.Run("unblocks when the window expires", func(t *testing.T) {
		now := time.Now()
		throttle := auth.NewThrottleWithClock(2, 10*time.Minute, func() time.Time { return now })

		throttle.RecordFailure("1.2.3.4")
		throttle.RecordFailure("1.2.3.4")
		assert.True(t, throttle.IsBlocked("1.2.3.4"))

		now = now.Add(10*time.Minute + time.Second)
		assert.False(t, throttle.IsBlocked("1.2.3.4"))
	})

	t.Run("unknown client is not blocked", func(t *testing.T) {
		throttle := auth.NewThrottle(5, 15*time.Minute)
		assert.False(t, throttle.IsBlocked("nobody"))
	})
}

func TestThrottle_RecordSuccess(t *testing.T) {
	throttle := auth.NewThrottle(2, 15*time.Minute)

	throttle.RecordFailure("1.2.3.4")
	throttle.RecordFailure("1.2.3.4")
	assert.True(t, throttle.IsBlocked("1.2.3.4"))

	throttle.RecordSuccess("1.2.3.4")
	assert.False(t, throttle.IsBlocked("1.2.3.4"))
	assert.Equal(t, 2, throttle.Remaining("1.2.3.4"))
	assert.Equal(t, 1, throttle.RecordFailure("1.2.3.4"))
}

func TestThrottle_Remaining(t *testing.T) {
	throttle := auth.NewThrottle(5, 15*time.Minute)

	assert.Equal(t, 5, throttle.Remaining("1.2.3.4"))
	throttle.RecordFailure("1.2.3.4")
	assert.Equal(t, 4, throttle.Remaining("1.2.3.4"))
	for i := 0; i < 4; i++ {
		throttle.RecordFailure("1.2.3.4")
	}
	assert.Equal(t, 0, throttle.Remaining("1.2.3.4"))
	throttle.RecordFailure("1.2.3.4")
	assert.Equal(t, 0, throttle.Remaining("1.2.3.4"))
}

func TestThrottle_RetryAfter(t *testing.T) {
	now := time.Now()
	throttle := auth.NewThrottleWithClock(2, 10*time.Minute, func() time.Time { return now })

	assert.Zero(t, throttle.RetryAfter("1.2.3.4"))

	throttle.RecordFailure("1.2.3.4")
	throttle.RecordFailure("1.2.3.4")
	assert.Equal(t, 10*time.Minute, throttle.RetryAfter("1.2.3.4"))

	now = now.Add(4 * time.Minute)
	assert.Equal(t, 6*time.Minute, throttle.RetryAfter("1.2.3.4"))
}

func TestThrottle_Sweep(t *testing.T) {
	now := time.Now()
	throttle := auth.NewThrottleWithClock(5, 10*time.Minute, func() time.Time { return now })

	throttle.RecordFailure("old")
	now = now.Add(6 * time.Minute)
	throttle.RecordFailure("fresh")

	now = now.Add(5 * time.Minute) // "old" expired, "fresh" not
	assert.Equal(t, 1, throttle.Sweep())
	assert.Equal(t, 0, throttle.Sweep())
	assert.Equal(t, 4, throttle.Remaining("fresh"))
}

func TestThrottle_Concurrent(t *testing.T) {
	throttle := auth.NewThrottle(1000, 15*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				throttle.RecordFailure("shared")
				throttle.RecordFailure(fmt.Sprintf("client-%d", n))
			}
		}(i)
	}
	wg.Wait()

	// No lost updates: all 500 shared failures counted.
	assert.Equal(t, 1000-500, throttle.Remaining("shared"))
}
