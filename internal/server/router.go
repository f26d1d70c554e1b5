package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/server/handler"
)

// maxWebhookBytes matches the payload cap GitHub applies to webhook deliveries.
const maxWebhookBytes = 25 << 20

const (
	healthPath  = "/health"
	webhookPath = "/api/v1/webhook/github"
)

// NewRouter returns the webhook server's routes: a health check and the GitHub
// webhook receiver.
func NewRouter(cfg *config.Config, dispatcher core.JobDispatcher, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.Server.WriteTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	}

	r.Get(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	webhooks := handler.NewWebhookHandler(cfg, dispatcher, logger)
	r.With(middleware.RequestSize(maxWebhookBytes)).Post(webhookPath, webhooks.Handle)

	return r
}

// requestLogger writes one slog record per request. Health checks log at debug.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if r.URL.Path == healthPath {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
				"github_event", r.Header.Get("X-GitHub-Event"),
			)
		})
	}
}
