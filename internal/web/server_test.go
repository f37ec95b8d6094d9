// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthGate Contributors

package web_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hanfeyyap/secure-auth-demo/internal/web"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startServer(t *testing.T) *web.Server {
	t.Helper()

	server, err := web.NewServer("127.0.0.1:0", newTestHandler(t).Routes(), nil)
	require.NoError(t, err)

	_, err = server.Start()
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
		// Drop keepalive connections so goleak sees no lingering goroutines.
		http.DefaultClient.CloseIdleConnections()
	})
	return server
}

func TestServer_ServesIndex(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `action="/login"`)
}

func TestServer_Lifecycle(t *testing.T) {
	server, err := web.NewServer("127.0.0.1:0", newTestHandler(t).Routes(), nil)
	require.NoError(t, err)

	t.Run("addr empty before start", func(t *testing.T) {
		assert.Empty(t, server.Addr())
	})

	errCh, err := server.Start()
	require.NoError(t, err)
	require.NotEmpty(t, server.Addr())

	t.Run("double start fails", func(t *testing.T) {
		_, startErr := server.Start()
		assert.Error(t, startErr)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	t.Run("error channel closes on graceful stop", func(t *testing.T) {
		select {
		case serveErr, ok := <-errCh:
			assert.False(t, ok, "unexpected error: %v", serveErr)
		case <-time.After(time.Second):
			t.Fatal("error channel not closed after stop")
		}
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		assert.NoError(t, server.Stop(context.Background()))
	})
}

func TestNewServer_NilHandler(t *testing.T) {
	_, err := web.NewServer("127.0.0.1:0", nil, nil)
	assert.Error(t, err)
}
