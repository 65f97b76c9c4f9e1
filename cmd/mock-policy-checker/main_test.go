package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policycheck/internal/platform/config"
)

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, &config.MockServer{
			Addr:       "127.0.0.1:0",
			Tenant:     "acme",
			Stage:      "dev",
			SigningKey: "k",
		}, slog.New(slog.DiscardHandler))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	err := run(context.Background(), &config.MockServer{Addr: "127.0.0.1:0"}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant is required")
}
