// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanfeyyap/secure-auth-demo/internal/auth"
	"github.com/hanfeyyap/secure-auth-demo/internal/auth/memory"
	"github.com/hanfeyyap/secure-auth-demo/internal/config"
	"github.com/hanfeyyap/secure-auth-demo/internal/logging"
	"github.com/hanfeyyap/secure-auth-demo/internal/observability"
	authTLS "github.com/hanfeyyap/secure-auth-demo/internal/tls"
	"github.com/hanfeyyap/secure-auth-demo/internal/web"
)

// sweepInterval is how often expired sessions and stale throttle windows are
// evicted.
const sweepInterval = time.Minute

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication gateway",
		Long: `Start the authentication gateway: the HTTPS surface for registration,
login, protected-resource checks, and logout, plus the metrics endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	// Flag defaults mirror config defaults; config.Load only applies
	// flags the user actually changed.
	defaults := config.Default()
	cmd.Flags().String("listen-addr", defaults.ListenAddr, "HTTPS listen address")
	cmd.Flags().String("metrics-addr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().String("tls-cert", defaults.TLSCert, "TLS certificate PEM file (empty = self-signed dev cert)")
	cmd.Flags().String("tls-key", defaults.TLSKey, "TLS private key PEM file")
	cmd.Flags().Int("max-login-attempts", defaults.MaxLoginAttempts, "failed logins per client before blocking")
	cmd.Flags().Duration("attempt-window", defaults.AttemptWindow, "throttle window duration")
	cmd.Flags().Int("min-password-strength", defaults.MinPasswordStrength, "minimum password strength 0-4 (0 = policy disabled)")
	cmd.Flags().String("hash-cost", defaults.HashCost, "password hash cost (interactive, moderate, sensitive)")
	cmd.Flags().Duration("session-ttl", defaults.SessionTTL, "session lifetime (0 = until logout or process exit)")

	return cmd
}

// runServe starts the gateway process.
func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.SetDefault("authgate", version, cfg.LogFormat)

	slog.Info("starting gateway",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"max_login_attempts", cfg.MaxLoginAttempts,
		"attempt_window", cfg.AttemptWindow,
		"min_password_strength", cfg.MinPasswordStrength,
		"hash_cost", cfg.HashCost,
		"session_ttl", cfg.SessionTTL,
	)

	// Assemble the core. All state is in-memory and scoped to this call;
	// nothing lives in package globals.
	params, err := auth.ParamsForCost(cfg.HashCost)
	if err != nil {
		return fmt.Errorf("failed to resolve hash cost: %w", err)
	}
	hasher := auth.NewArgon2idHasherWithParams(params)

	identities := memory.NewIdentityRepository()
	sessionRepo := memory.NewSessionRepository()

	sessions, err := auth.NewSessionManagerWithLogger(sessionRepo, cfg.SessionTTL, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	throttle := auth.NewThrottle(cfg.MaxLoginAttempts, cfg.AttemptWindow)

	opts := []auth.ServiceOption{auth.WithLogger(slog.Default())}
	if cfg.MinPasswordStrength > 0 {
		opts = append(opts, auth.WithStrengthPolicy(auth.NewHeuristicEvaluator(), cfg.MinPasswordStrength))
	}
	service, err := auth.NewService(identities, sessions, hasher, throttle, opts...)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Gateway server, TLS-terminated.
	tlsConfig, err := authTLS.LoadServerTLS(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return fmt.Errorf("failed to load TLS configuration: %w", err)
	}
	if cfg.TLSCert == "" {
		slog.Warn("no TLS certificate configured, using a self-signed dev certificate")
	}

	var gatewayReady func() bool

	// Metrics/health server, optional.
	var metrics *observability.Metrics
	var obsErrCh <-chan error
	if cfg.MetricsAddr != "" {
		obs := observability.NewServer(cfg.MetricsAddr,
			func() bool { return gatewayReady != nil && gatewayReady() },
			func() float64 {
				count, countErr := sessionRepo.Count(context.Background())
				if countErr != nil {
					return 0
				}
				return float64(count)
			},
		)
		metrics = obs.Metrics()

		obsErrCh, err = obs.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obs.Stop(stopCtx); stopErr != nil {
				slog.Warn("error stopping observability server", "error", stopErr)
			}
		}()
	}

	handlerOpts := []web.HandlerOption{web.WithLogger(slog.Default())}
	if metrics != nil {
		handlerOpts = append(handlerOpts, web.WithMetrics(metrics))
	}
	handler, err := web.NewHandler(service, handlerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create gateway handler: %w", err)
	}

	gateway, err := web.NewServer(cfg.ListenAddr, handler.Routes(), tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to create gateway server: %w", err)
	}

	gwErrCh, err := gateway.Start()
	if err != nil {
		return fmt.Errorf("failed to start gateway server: %w", err)
	}
	gatewayReady = func() bool { return gateway.Addr() != "" }
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if stopErr := gateway.Stop(stopCtx); stopErr != nil {
			slog.Warn("error stopping gateway server", "error", stopErr)
		}
	}()

	// Janitor: bounds memory held by expired sessions and stale throttle
	// windows.
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				throttle.Sweep()
				if _, sweepErr := sessions.SweepExpired(ctx); sweepErr != nil {
					slog.Warn("session sweep failed", "error", sweepErr)
				}
			}
		}
	}()
	// cancel first so the janitor can exit before we wait on it.
	defer func() {
		cancel()
		<-janitorDone
	}()

	slog.Info("gateway ready", "addr", gateway.Addr())

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		return nil
	case serveErr := <-gwErrCh:
		if serveErr != nil {
			return fmt.Errorf("gateway server failed: %w", serveErr)
		}
		return nil
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			return fmt.Errorf("observability server failed: %w", obsErr)
		}
		return nil
	}
}
