// Package wire assembles the webhook server with google/wire.
package wire

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/patch-warden/internal/app"
	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/jobs"
	"github.com/sevigo/patch-warden/internal/llm"
	"github.com/sevigo/patch-warden/internal/logger"
	"github.com/sevigo/patch-warden/internal/server"
)

// AppSet provides every component of the webhook server.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	jobs.NewClientFactory,
	jobs.NewReviewJob,
	llm.NewPromptManager,
	llm.NewGeminiConfig,
	provideServerConfig,
	provideSlogLogger,
	provideReviewer,
	provideDispatcher,
)

// provideServerConfig loads the server settings. Rules files are not read here:
// each review job fetches the one committed to the repository under review.
func provideServerConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}

func provideSlogLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(cfg.Logging, logger.OpenOutput(cfg.Logging.Output))
}

func provideReviewer(ctx context.Context, gcfg llm.GeminiConfig, logger *slog.Logger) (llm.Reviewer, error) {
	return llm.NewGeminiReviewer(ctx, gcfg, logger)
}

func provideDispatcher(ctx context.Context, job core.Job, cfg *config.Config, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(ctx, job, cfg.Server.MaxWorkers, logger)
}
