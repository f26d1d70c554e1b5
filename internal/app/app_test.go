package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/server"
)

type stubDispatcher struct{ stopped bool }

func (d *stubDispatcher) Dispatch(context.Context, *core.GitHubEvent) error { return nil }
func (d *stubDispatcher) Stop()                                             { d.stopped = true }

func TestApp_StartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Server: config.ServerConfig{Port: "0", MaxWorkers: 1}}
	d := &stubDispatcher{}
	srv := server.NewServer(context.Background(), cfg, d, logger)
	a := NewApp(cfg, srv, d, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, a.Stop())
	assert.True(t, d.stopped)

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not return after Stop")
	}
}
