package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/github"
	"github.com/sevigo/patch-warden/internal/llm"
	"github.com/sevigo/patch-warden/internal/logger"
	"github.com/sevigo/patch-warden/internal/review"
)

// flagBindings maps command-line flags to the environment keys they override.
var flagBindings = map[string]string{
	"github-token": "GITHUB_TOKEN",
	"repository":   "GITHUB_REPOSITORY",
	"pr":           "PR_NUMBER",
	"workers":      "REVIEW_MAX_WORKERS",
	"rules":        "REVIEW_RULES_FILE",
	"log-level":    "LOG_LEVEL",
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var envFile string

	cmd := &cobra.Command{
		Use:   "patch-warden",
		Short: "Review the changed files of a pull request with Gemini.",
		Long: `patch-warden reads the pull request named by GITHUB_REPOSITORY and PR_NUMBER,
asks Gemini to review every changed file with an allowed extension and posts
one comment per file.

Inference failures are reported inside the comments and never stop the run.
A failure to post a comment exits with status 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, envFile)
			if err != nil {
				return err
			}
			return runAction(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Optional env file read before the environment")
	flags.StringP("github-token", "t", "", "GitHub token (overrides GITHUB_TOKEN)")
	flags.StringP("repository", "r", "", "Repository as owner/name (overrides GITHUB_REPOSITORY)")
	flags.String("pr", "", "Pull request number (overrides PR_NUMBER)")
	flags.Int("workers", 1, "Files reviewed concurrently (overrides REVIEW_MAX_WORKERS)")
	flags.String("rules", "", "Rules file (overrides REVIEW_RULES_FILE)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	for flag, key := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}

	cmd.AddCommand(newPreviewCmd(v, &envFile))
	return cmd
}

func loadConfig(v *viper.Viper, envFile string) (*config.Config, error) {
	if envFile != "" {
		config.ReadDotEnv(v, envFile)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(cfg.Logging, logger.OpenOutput(cfg.Logging.Output))
}

// runAction reviews the pull request described by cfg and posts the comments.
func runAction(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg)

	if err := cfg.ValidateAction(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}
	if err := cfg.ApplyRulesFile(); err != nil {
		log.Error("failed to load rules file", "path", cfg.Review.RulesFile, "error", err)
		return err
	}

	ref, err := cfg.PullRequest()
	if err != nil {
		return err
	}
	log.Info("configuration loaded",
		"pull_request", ref.String(),
		"model", cfg.AI.Model,
		"allowed_extensions", cfg.Review.AllowedExtensions,
		"max_workers", cfg.Review.MaxWorkers,
	)

	client, err := github.NewPATClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL, log)
	if err != nil {
		return err
	}
	poster := github.NewCommentPoster(client)

	if cfg.AI.GeminiAPIKey == "" {
		return review.NotifyMissingAPIKey(ctx, poster, ref, log)
	}

	runner, err := newRunner(ctx, cfg, client, poster, log)
	if err != nil {
		return err
	}

	summary, err := runner.Run(ctx, ref)
	if err != nil {
		return err
	}
	log.Info("review finished", "commented", summary.Commented, "skipped", summary.Skipped)
	return nil
}

func newRunner(ctx context.Context, cfg *config.Config, client github.Client, poster review.Poster, log *slog.Logger) (*review.Runner, error) {
	reviewer, err := llm.NewGeminiReviewer(ctx, llm.NewGeminiConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create reviewer: %w", err)
	}
	prompts, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	return review.NewRunner(client, reviewer, prompts, poster, review.OptionsFromConfig(cfg), log), nil
}

