// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strength is the result of scoring a candidate password.
type Strength struct {
	// Level classifies the password from 0 (trivially guessable) to 4 (strong).
	Level int

	// Suggestions lists concrete improvements, strongest lever first.
	Suggestions []string
}

// StrengthEvaluator scores candidate passwords. Implementations must be
// stateless; the evaluator is a swappable registration policy.
type StrengthEvaluator interface {
	Score(password string) Strength
}

// HeuristicEvaluator is a minimal, conservative strength estimator based on
// length, character variety, and a short list of trivial patterns. It is not
// a full dictionary-based estimator.
type HeuristicEvaluator struct{}

// NewHeuristicEvaluator creates a HeuristicEvaluator.
func NewHeuristicEvaluator() *HeuristicEvaluator {
	return &HeuristicEvaluator{}
}

// commonPasswords are trivial passwords rejected outright, compared
// case-insensitively.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"123456":      {},
	"12345678":    {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"letmein":     {},
	"11111111":    {},
	"iloveyou":    {},
	"admin":       {},
}

// Score classifies a password into levels 0..4.
//
// Points are granted for length (>= 8, >= 12 runes) and character variety
// (>= 3 classes, all 4 classes), then capped for degenerate shapes: a single
// repeated rune or a known trivial password scores 0, and digit-only
// passwords never score above 1.
func (HeuristicEvaluator) Score(password string) Strength {
	if password == "" {
		return Strength{Level: 0, Suggestions: []string{"Use at least 8 characters."}}
	}

	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		return Strength{Level: 0, Suggestions: []string{"Avoid commonly used passwords."}}
	}

	if allSameRune(password) {
		return Strength{Level: 0, Suggestions: []string{"Avoid repeating a single character."}}
	}

	n := utf8.RuneCountInString(password)
	var hasLower, hasUpper, hasDigit, hasOther bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasOther = true
		}
	}
	classes := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasOther} {
		if has {
			classes++
		}
	}

	level := 0
	if n >= 8 {
		level++
	}
	if n >= 12 {
		level++
	}
	if classes >= 3 {
		level++
	}
	if classes == 4 || (classes >= 3 && n >= 10) {
		level++
	}

	// PIN-like passwords are weak regardless of length.
	if hasDigit && classes == 1 && level > 1 {
		level = 1
	}

	var suggestions []string
	if n < 12 {
		suggestions = append(suggestions, "Use at least 12 characters.")
	}
	if !hasUpper {
		suggestions = append(suggestions, "Add uppercase letters.")
	}
	if !hasLower {
		suggestions = append(suggestions, "Add lowercase letters.")
	}
	if !hasDigit {
		suggestions = append(suggestions, "Add digits.")
	}
	if !hasOther {
		suggestions = append(suggestions, "Add symbols.")
	}

	return Strength{Level: level, Suggestions: suggestions}
}

func allSameRune(s string) bool {
	var first rune
	for i, r := range s {
		if i == 0 {
			first = r
			continue
		}
		if r != first {
			return false
		}
	}
	return true
}
