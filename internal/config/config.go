// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

// Package config loads gateway configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
)

// Config is the static startup configuration for the gateway.
type Config struct {
	// ListenAddr is the HTTPS listen address.
	ListenAddr string `koanf:"listen_addr"`

	// MetricsAddr is the metrics/health HTTP address. Empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// TLSCert and TLSKey are PEM file paths. When both are empty a
	// self-signed localhost certificate is generated at startup.
	TLSCert string `koanf:"tls_cert"`
	TLSKey  string `koanf:"tls_key"`

	// MaxLoginAttempts is the failure count that blocks a client.
	MaxLoginAttempts int `koanf:"max_login_attempts"`

	// AttemptWindow is the fixed throttle window duration.
	AttemptWindow time.Duration `koanf:"attempt_window"`

	// MinPasswordStrength is the minimum accepted strength level (0..4).
	// Zero disables the strength policy.
	MinPasswordStrength int `koanf:"min_password_strength"`

	// HashCost selects the argon2id preset: interactive, moderate, or
	// sensitive.
	HashCost string `koanf:"hash_cost"`

	// SessionTTL bounds session lifetime. Zero means sessions live until
	// logout or process exit.
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:          ":3000",
		MetricsAddr:         "127.0.0.1:9100",
		LogFormat:           "json",
		MaxLoginAttempts:    auth.DefaultMaxAttempts,
		AttemptWindow:       auth.DefaultAttemptWindow,
		MinPasswordStrength: auth.DefaultMinPasswordStrength,
		HashCost:            "moderate",
		SessionTTL:          0,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then any changed flags in flags (if non-nil). Flag
// names map to config keys with dashes replaced by underscores.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	// Unmarshal below overlays loaded keys onto the defaults, so keys
	// absent from both file and flags keep their default values.
	cfg := Default()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the gateway cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen address cannot be empty")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log format must be json or text")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return oops.Code("CONFIG_INVALID").Errorf("tls cert and key must be set together")
	}
	if c.MaxLoginAttempts < 1 {
		return oops.Code("CONFIG_INVALID").
			With("max_login_attempts", c.MaxLoginAttempts).
			Errorf("max login attempts must be at least 1")
	}
	if c.AttemptWindow <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("attempt_window", c.AttemptWindow).
			Errorf("attempt window must be positive")
	}
	if c.MinPasswordStrength < 0 || c.MinPasswordStrength > 4 {
		return oops.Code("CONFIG_INVALID").
			With("min_password_strength", c.MinPasswordStrength).
			Errorf("minimum password strength must be between 0 and 4")
	}
	if _, err := auth.ParamsForCost(c.HashCost); err != nil {
		return err
	}
	if c.SessionTTL < 0 {
		return oops.Code("CONFIG_INVALID").
			With("session_ttl", c.SessionTTL).
			Errorf("session TTL cannot be negative")
	}
	return nil
}
