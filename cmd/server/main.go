// Command patch-warden-server reviews pull requests on GitHub webhook events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevigo/patch-warden/internal/wire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("patch-warden-server failed", "error", err)
		os.Exit(1)
	}
}

// run serves webhooks until SIGINT or SIGTERM. The signal cancels the context
// shared by request handlers and review jobs; Stop then drains the queue.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	serveErr := make(chan error, 1)
	go func() { serveErr <- app.Start() }()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, cancelling in-flight reviews")
	case err = <-serveErr:
		stop()
	}

	if stopErr := app.Stop(); stopErr != nil {
		return fmt.Errorf("failed to stop application: %w", stopErr)
	}
	return err
}
