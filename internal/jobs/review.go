package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/github"
	"github.com/sevigo/patch-warden/internal/llm"
	"github.com/sevigo/patch-warden/internal/review"
)

// jobTimeout bounds a whole webhook-triggered review run.
const jobTimeout = 15 * time.Minute

// ClientFactory returns a GitHub client for the installation that sent an event.
// installationID is zero for events delivered to a plain repository webhook.
type ClientFactory func(ctx context.Context, installationID int64) (github.Client, error)

// NewClientFactory authenticates per event using the configured App or token.
func NewClientFactory(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return func(ctx context.Context, installationID int64) (github.Client, error) {
		return github.ClientForEvent(ctx, cfg, installationID, logger)
	}
}

// ReviewJob reviews the pull request named by a webhook event.
type ReviewJob struct {
	cfg       *config.Config
	newClient ClientFactory
	reviewer  llm.Reviewer
	prompts   *llm.PromptManager
	logger    *slog.Logger
}

// NewReviewJob creates a new ReviewJob.
func NewReviewJob(cfg *config.Config, newClient ClientFactory, reviewer llm.Reviewer, prompts *llm.PromptManager, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if newClient == nil {
		panic("client factory cannot be nil")
	}
	if reviewer == nil {
		panic("reviewer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{cfg: cfg, newClient: newClient, reviewer: reviewer, prompts: prompts, logger: logger}
}

// Run executes the review for a given GitHub event.
func (j *ReviewJob) Run(ctx context.Context, event *core.GitHubEvent) error {
	if err := validateEvent(event); err != nil {
		j.logger.Error("input validation failed", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	j.logger.Info("starting review job", "repo", event.RepoFullName, "pr", event.PRNumber, "sender", event.Sender)

	client, err := j.newClient(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	cfg, err := j.configFor(ctx, client, event)
	if err != nil {
		return err
	}

	runner := review.NewRunner(client, j.reviewer, j.prompts, github.NewCommentPoster(client), review.OptionsFromConfig(cfg), j.logger)
	summary, err := runner.Run(ctx, event.Ref())
	if err != nil {
		return fmt.Errorf("review run failed: %w", err)
	}

	j.logger.Info("review job completed", "repo", event.RepoFullName, "pr", event.PRNumber,
		"commented", summary.Commented, "skipped", summary.Skipped)
	return nil
}

// configFor applies the rules file of the reviewed repository, read at the
// event's head commit, to a copy of the server configuration. A missing file or
// a failed fetch keeps the server defaults; a malformed file fails the job.
func (j *ReviewJob) configFor(ctx context.Context, client github.Client, event *core.GitHubEvent) (*config.Config, error) {
	path := j.cfg.Review.RulesFile
	if path == "" {
		return j.cfg, nil
	}

	data, err := client.GetFileContent(ctx, event.RepoOwner, event.RepoName, path, event.HeadSHA)
	switch {
	case errors.Is(err, github.ErrFileNotFound):
		j.logger.Debug("no rules file in repository", "repo", event.RepoFullName, "path", path)
		return j.cfg, nil
	case err != nil:
		j.logger.Warn("could not fetch rules file, using server defaults", "repo", event.RepoFullName, "path", path, "error", err)
		return j.cfg, nil
	}

	rules, err := config.ParseRepoRules(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s in %s: %w", path, event.RepoFullName, err)
	}

	cfg := j.cfg.Clone()
	cfg.ApplyRules(rules)
	j.logger.Info("applied repository rules", "repo", event.RepoFullName, "path", path,
		"allowed_extensions", cfg.Review.AllowedExtensions, "exclude_dirs", cfg.Review.ExcludeDirs)
	return cfg, nil
}

// validateEvent ensures the event contains all required fields.
func validateEvent(event *core.GitHubEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	if event.InstallationID < 0 {
		return fmt.Errorf("installation ID must not be negative, got: %d", event.InstallationID)
	}
	return nil
}
