// Package app holds the components of the webhook server and controls their lifecycle.
package app

import (
	"log/slog"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/server"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher core.JobDispatcher
}

// NewApp assembles the application from already constructed components.
func NewApp(cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, logger *slog.Logger) *App {
	logger.Info("patch-warden server initialized",
		"model", cfg.AI.Model,
		"allowed_extensions", cfg.Review.AllowedExtensions,
		"max_workers", cfg.Server.MaxWorkers,
	)
	return &App{
		cfg:        cfg,
		server:     srv,
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting patch-warden",
		"server_port", a.cfg.Server.Port,
		"max_workers", a.cfg.Server.MaxWorkers)

	err := a.server.Start()
	if err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}

	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down patch-warden services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	// In-flight reviews are allowed to finish.
	a.dispatcher.Stop()

	if serverErr != nil {
		a.logger.Error("patch-warden stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("patch-warden stopped successfully")
	return nil
}
