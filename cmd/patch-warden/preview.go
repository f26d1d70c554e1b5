package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/github"
	"github.com/sevigo/patch-warden/internal/gitutil"
	"github.com/sevigo/patch-warden/internal/review"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	dimColor     = color.New(color.FgHiBlack)
)

func newPreviewCmd(v *viper.Viper, envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [pr-url]",
		Short: "Print the reviews for a pull request without posting them",
		Long: `Review a GitHub pull request and print the comments to the terminal.
Nothing is posted to the pull request.

Examples:
  patch-warden preview https://github.com/owner/repo/pull/123
  patch-warden preview --workers 4 https://github.com/owner/repo/pull/123/files`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *envFile)
			if err != nil {
				return err
			}
			return runPreview(cmd.Context(), cfg, args[0], cmd.OutOrStdout())
		},
	}
}

func runPreview(ctx context.Context, cfg *config.Config, prURL string, out io.Writer) error {
	owner, repo, number, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}
	if cfg.GitHub.Token == "" {
		return fmt.Errorf("%w\n\nTip: set GITHUB_TOKEN or pass --github-token", config.ErrMissingGitHubToken)
	}
	if cfg.AI.GeminiAPIKey == "" {
		return review.ErrMissingAPIKey
	}
	if err := cfg.ApplyRulesFile(); err != nil {
		return err
	}

	log := newLogger(cfg)
	ref := core.PullRequestRef{Owner: owner, Repo: repo, Number: number}

	_, _ = titleColor.Fprintln(out, "🚀 patch-warden preview")
	_, _ = dimColor.Fprintf(out, "   Target: %s (model %s)\n\n", ref, cfg.AI.Model)

	client, err := github.NewPATClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIURL, log)
	if err != nil {
		return err
	}
	runner, err := newRunner(ctx, cfg, client, review.NewConsolePoster(out), log)
	if err != nil {
		return err
	}

	start := time.Now()
	summary, err := runner.Run(ctx, ref)
	if err != nil {
		return err
	}

	_, _ = successColor.Fprintf(out, "✓ %d file(s) reviewed, %d skipped in %s\n",
		summary.Commented, summary.Skipped, time.Since(start).Round(time.Millisecond))
	return nil
}
