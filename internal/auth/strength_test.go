// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
)

func TestHeuristicEvaluator_Score(t *testing.T) {
	evaluator := auth.NewHeuristicEvaluator()

	t.Run("levels", func(t *testing.T) {
		tests := []struct {
			password string
			level    int
		}{
			{"", 0},
			{"weak", 0},
			{"password123", 0},  // common password
			{"aaaaaaaaaaaa", 0}, // single repeated rune
			{"12345679012345", 1}, // digits only, capped
			{"short1!", 1},
			{"Tr0ub4dor&3", 3},
			{"correct horse BATTERY staple 99!", 4},
		}
		for _, tt := range tests {
			t.Run(tt.password, func(t *testing.T) {
				result := evaluator.Score(tt.password)
				assert.Equal(t, tt.level, result.Level, "password %q", tt.password)
			})
		}
	})

	t.Run("weak passwords get suggestions", func(t *testing.T) {
		result := evaluator.Score("weak")
		assert.Less(t, result.Level, 3)
		assert.NotEmpty(t, result.Suggestions)
	})

	t.Run("suggestions name the missing classes", func(t *testing.T) {
		result := evaluator.Score("alllowercase")
		assert.Contains(t, result.Suggestions, "Add uppercase letters.")
		assert.Contains(t, result.Suggestions, "Add digits.")
		assert.Contains(t, result.Suggestions, "Add symbols.")
		assert.NotContains(t, result.Suggestions, "Add lowercase letters.")
	})

	t.Run("short passwords suggest more length first", func(t *testing.T) {
		result := evaluator.Score("Ab1!")
		assert.NotEmpty(t, result.Suggestions)
		assert.Equal(t, "Use at least 12 characters.", result.Suggestions[0])
	})

	t.Run("common passwords rejected case-insensitively", func(t *testing.T) {
		assert.Equal(t, 0, evaluator.Score("PASSWORD123").Level)
		assert.Equal(t, 0, evaluator.Score("QwErTy").Level)
	})
}
