// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanfeyyap/secure-auth-demo/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.AttemptWindow)
	assert.Equal(t, 3, cfg.MinPasswordStrength)
	assert.Equal(t, "moderate", cfg.HashCost)
	assert.Zero(t, cfg.SessionTTL)
}

func TestLoad_File(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
listen_addr: ":8443"
log_format: text
max_login_attempts: 3
attempt_window: 5m
session_ttl: 24h
`)

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)

		assert.Equal(t, ":8443", cfg.ListenAddr)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 3, cfg.MaxLoginAttempts)
		assert.Equal(t, 5*time.Minute, cfg.AttemptWindow)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		// Untouched keys keep defaults.
		assert.Equal(t, 3, cfg.MinPasswordStrength)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := config.Load("/nonexistent/config.yaml", nil)
		assert.Error(t, err)
	})
}

func TestLoad_Flags(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		defaults := config.Default()
		flags.String("listen-addr", defaults.ListenAddr, "")
		flags.Int("max-login-attempts", defaults.MaxLoginAttempts, "")
		flags.Duration("attempt-window", defaults.AttemptWindow, "")
		return flags
	}

	t.Run("changed flags override the file", func(t *testing.T) {
		path := writeConfigFile(t, "max_login_attempts: 3\n")

		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--max-login-attempts=7"}))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.MaxLoginAttempts)
	})

	t.Run("unchanged flags do not override the file", func(t *testing.T) {
		path := writeConfigFile(t, "max_login_attempts: 3\n")

		flags := newFlags()
		require.NoError(t, flags.Parse(nil))

		cfg, err := config.Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.MaxLoginAttempts)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := config.Default()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty listen address", func(c *config.Config) { c.ListenAddr = "" }},
		{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }},
		{"cert without key", func(c *config.Config) { c.TLSCert = "cert.pem" }},
		{"key without cert", func(c *config.Config) { c.TLSKey = "key.pem" }},
		{"zero max attempts", func(c *config.Config) { c.MaxLoginAttempts = 0 }},
		{"zero attempt window", func(c *config.Config) { c.AttemptWindow = 0 }},
		{"strength too high", func(c *config.Config) { c.MinPasswordStrength = 5 }},
		{"negative strength", func(c *config.Config) { c.MinPasswordStrength = -1 }},
		{"unknown hash cost", func(c *config.Config) { c.HashCost = "extreme" }},
		{"negative session TTL", func(c *config.Config) { c.SessionTTL = -time.Hour }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
