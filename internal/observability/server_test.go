// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package observability_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hanfeyyap/secure-auth-demo/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startServer(t *testing.T, ready observability.ReadinessChecker, sessions observability.SessionCounter) *observability.Server {
	t.Helper()
	server := observability.NewServer("127.0.0.1:0", ready, sessions)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		// Drop keepalive connections so goleak sees no lingering goroutines.
		http.DefaultClient.CloseIdleConnections()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test URL built from local listener addr
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startServer(t, nil, func() float64 { return 3 })
	server.Metrics().LoginsTotal.WithLabelValues("success").Inc()

	status, body := get(t, fmt.Sprintf("http://%s/metrics", server.Addr()))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `authgate_logins_total{outcome="success"} 1`)
	assert.Contains(t, body, "authgate_active_sessions 3")
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_HealthProbes(t *testing.T) {
	t.Run("liveness is always ok", func(t *testing.T) {
		server := startServer(t, func() bool { return false }, nil)

		status, body := get(t, fmt.Sprintf("http://%s/healthz/liveness", server.Addr()))
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok\n", body)
	})

	t.Run("readiness follows the checker", func(t *testing.T) {
		ready := false
		server := startServer(t, func() bool { return ready }, nil)

		status, _ := get(t, fmt.Sprintf("http://%s/healthz/readiness", server.Addr()))
		assert.Equal(t, http.StatusServiceUnavailable, status)

		ready = true
		status, _ = get(t, fmt.Sprintf("http://%s/healthz/readiness", server.Addr()))
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("nil checker means ready", func(t *testing.T) {
		server := startServer(t, nil, nil)

		status, _ := get(t, fmt.Sprintf("http://%s/healthz/readiness", server.Addr()))
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestServer_Lifecycle(t *testing.T) {
	t.Run("double start fails", func(t *testing.T) {
		server := startServer(t, nil, nil)
		_, err := server.Start()
		assert.Error(t, err)
	})

	t.Run("stop when not running is a no-op", func(t *testing.T) {
		server := observability.NewServer("127.0.0.1:0", nil, nil)
		assert.NoError(t, server.Stop(context.Background()))
	})
}
