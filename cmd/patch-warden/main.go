// Command patch-warden reviews the changed files of a pull request with Gemini
// and posts one comment per file.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("patch-warden failed", "error", err)
		stop()
		os.Exit(1)
	}
}
