package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/github"
	"github.com/sevigo/patch-warden/internal/llm"
)

var (
	ErrPostComment   = errors.New("failed to post review comment")
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY must be set")
)

const (
	// FailedReviewPrefix starts every comment that carries an inference error.
	FailedReviewPrefix = "Failed to get review"
	// NoSuggestionsMessage is posted when the model returned no candidates.
	NoSuggestionsMessage = "No suggestions provided by the model."
)

// Poster publishes a comment body for a pull request.
type Poster interface {
	Post(ctx context.Context, ref core.PullRequestRef, body string) error
}

// Options control which files are reviewed and how many are processed at once.
type Options struct {
	AllowedExtensions  []string
	ExcludeDirs        []string
	CustomInstructions []string
	// MaxWorkers bounds concurrent file reviews. 1 keeps hosting-API order.
	MaxWorkers int
	Provider   llm.ModelProvider
}

// OptionsFromConfig derives runner options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AllowedExtensions:  cfg.Review.AllowedExtensions,
		ExcludeDirs:        cfg.Review.ExcludeDirs,
		CustomInstructions: cfg.Review.CustomInstructions,
		MaxWorkers:         cfg.Review.MaxWorkers,
		Provider:           llm.GeminiProvider,
	}
}

// Runner reviews the changed files of one pull request at a time.
type Runner struct {
	github   github.Client
	reviewer llm.Reviewer
	prompts  *llm.PromptManager
	poster   Poster
	opts     Options
	allowed  map[string]struct{}
	logger   *slog.Logger
}

// NewRunner creates a Runner. Files are read through client and comments go to poster.
func NewRunner(client github.Client, reviewer llm.Reviewer, prompts *llm.PromptManager, poster Poster, opts Options, logger *slog.Logger) *Runner {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}
	if opts.Provider == "" {
		opts.Provider = llm.DefaultProvider
	}

	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range config.NormalizeExtensions(opts.AllowedExtensions) {
		allowed[ext] = struct{}{}
	}

	return &Runner{
		github:   client,
		reviewer: reviewer,
		prompts:  prompts,
		poster:   poster,
		opts:     opts,
		allowed:  allowed,
		logger:   logger,
	}
}

// Run resolves the pull request, reviews every eligible changed file and posts
// one comment per file. Resolution failures and post failures are returned;
// everything else is reported inside the comments.
func (r *Runner) Run(ctx context.Context, ref core.PullRequestRef) (*core.RunSummary, error) {
	start := time.Now()
	logger := r.logger.With("repo", ref.FullName(), "pr", ref.Number)
	logger.Info("starting review run", "workers", r.opts.MaxWorkers)

	if _, err := r.github.GetRepository(ctx, ref.Owner, ref.Repo); err != nil {
		return nil, fmt.Errorf("failed to resolve repository %s: %w", ref.FullName(), err)
	}
	pr, err := r.github.GetPullRequest(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pull request %s: %w", ref, err)
	}
	logger.Info("resolved pull request", "title", pr.GetTitle(), "head_sha", pr.GetHead().GetSHA())

	files, err := r.github.GetChangedFiles(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files for %s: %w", ref, err)
	}
	logger.Info("fetched changed files", "count", len(files))

	summary := &core.RunSummary{}
	var mu sync.Mutex
	record := func(o core.FileOutcome) {
		mu.Lock()
		defer mu.Unlock()
		summary.Add(o)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxWorkers)

	aborted := func(file github.ChangedFile) {
		record(core.FileOutcome{Filename: file.Filename, State: core.FileAborted, Reason: "run aborted"})
	}

	for i, file := range files {
		if gctx.Err() != nil {
			logger.Warn("run aborted, remaining files not reviewed", "remaining", len(files)-i)
			for _, rest := range files[i:] {
				aborted(rest)
			}
			break
		}
		if reason, skip := r.skipReason(file); skip {
			logger.Info("skipping file", "file", file.Filename, "reason", reason)
			record(core.FileOutcome{Filename: file.Filename, State: core.FileSkipped, Reason: reason})
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				aborted(file)
				return nil
			}
			return r.processFile(gctx, logger, ref, file, record)
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	logger.Info("review run finished",
		"commented", summary.Commented,
		"skipped", summary.Skipped,
		"aborted_files", summary.Aborted,
		"duration", time.Since(start).Round(time.Millisecond),
		"aborted", err != nil,
	)
	return summary, err
}

func (r *Runner) processFile(ctx context.Context, logger *slog.Logger, ref core.PullRequestRef, file github.ChangedFile, record func(core.FileOutcome)) error {
	logger.Info("reviewing file", "file", file.Filename, "patch_bytes", len(file.Patch))

	text := r.reviewFile(ctx, logger, file)
	body := github.FormatFileReview(file.Filename, text)

	if err := r.poster.Post(ctx, ref, body); err != nil {
		logger.Error("failed to post review comment, aborting run", "file", file.Filename, "error", err)
		record(core.FileOutcome{Filename: file.Filename, State: core.FileFatal, Reason: err.Error()})
		return fmt.Errorf("%w for %s: %w", ErrPostComment, file.Filename, err)
	}

	logger.Info("posted review comment", "file", file.Filename)
	record(core.FileOutcome{Filename: file.Filename, State: core.FileCommented})
	return nil
}

// reviewFile always returns comment text: the model output, the no-suggestions
// message or a FailedReviewPrefix error description.
func (r *Runner) reviewFile(ctx context.Context, logger *slog.Logger, file github.ChangedFile) (text string) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("review panicked", "file", file.Filename, "panic", p)
			text = fmt.Sprintf("%s: unexpected error: %v", FailedReviewPrefix, p)
		}
	}()

	prompt, err := r.prompts.FileReview(r.opts.Provider, llm.FileReviewData{
		Filename:           file.Filename,
		Patch:              file.Patch,
		CustomInstructions: r.opts.CustomInstructions,
	})
	if err != nil {
		logger.Error("failed to build review prompt", "file", file.Filename, "error", err)
		return fmt.Sprintf("%s: %v", FailedReviewPrefix, err)
	}
	logger.Debug("review prompt built", "file", file.Filename, "patch", file.Patch, "prompt_bytes", len(prompt))

	review, err := r.reviewer.Review(ctx, prompt)
	switch {
	case errors.Is(err, llm.ErrNoCandidates):
		logger.Warn("model returned no candidates", "file", file.Filename)
		return NoSuggestionsMessage
	case err != nil:
		logger.Error("failed to get review", "file", file.Filename, "error", err)
		return fmt.Sprintf("%s: %v", FailedReviewPrefix, err)
	}
	return review
}

// skipReason reports why a file is not eligible for review.
func (r *Runner) skipReason(file github.ChangedFile) (string, bool) {
	if strings.TrimSpace(file.Patch) == "" {
		return "no patch", true
	}
	if dir, ok := r.excludedDir(file.Filename); ok {
		return fmt.Sprintf("under excluded directory %q", dir), true
	}
	ext := strings.ToLower(path.Ext(file.Filename))
	if _, ok := r.allowed[ext]; !ok {
		return fmt.Sprintf("extension %q not allowed", ext), true
	}
	return "", false
}

// excludedDir matches a directory either by name anywhere in the path or,
// when it contains a slash, as a path prefix.
func (r *Runner) excludedDir(filename string) (string, bool) {
	segments := strings.Split(filename, "/")
	dirs := segments[:len(segments)-1]

	for _, ex := range r.opts.ExcludeDirs {
		ex = strings.Trim(ex, "/")
		if ex == "" {
			continue
		}
		if strings.Contains(ex, "/") {
			if strings.HasPrefix(filename, ex+"/") {
				return ex, true
			}
			continue
		}
		for _, d := range dirs {
			if d == ex {
				return ex, true
			}
		}
	}
	return "", false
}

// NotifyMissingAPIKey posts the single missing-key comment on the pull request.
// It always returns an error wrapping ErrMissingAPIKey.
func NotifyMissingAPIKey(ctx context.Context, poster Poster, ref core.PullRequestRef, logger *slog.Logger) error {
	logger.Error("GEMINI_API_KEY is not set, reporting on the pull request", "repo", ref.FullName(), "pr", ref.Number)
	if err := poster.Post(ctx, ref, github.MissingAPIKeyComment); err != nil {
		logger.Error("failed to post missing key comment", "error", err)
		return fmt.Errorf("%w (%w: %w)", ErrMissingAPIKey, ErrPostComment, err)
	}
	return ErrMissingAPIKey
}
