// Package config loads the patch-warden configuration once at startup. Nothing
// outside this package reads the process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/logger"
)

var (
	ErrMissingGitHubToken = errors.New("GITHUB_TOKEN must be set")
	ErrMissingRepository  = errors.New("GITHUB_REPOSITORY must be set")
	ErrMissingPRNumber    = errors.New("PR_NUMBER must be set")
	ErrInvalidPRNumber    = errors.New("PR_NUMBER must be a positive integer")
)

// DefaultAllowedExtensions are reviewed when neither ALLOWED_EXTENSIONS nor the
// rules file says otherwise. ".txt" is kept for plain-text test pull requests.
var DefaultAllowedExtensions = []string{".py", ".js", ".java", ".cpp", ".txt"}

// Config holds the application's configuration values.
type Config struct {
	GitHub  GitHubConfig
	AI      AIConfig
	Review  ReviewConfig
	Server  ServerConfig
	Logging logger.Config
}

// GitHubConfig describes the hosting API and the pull request under review.
type GitHubConfig struct {
	Token          string
	APIURL         string
	Repository     string
	PRNumber       int
	AppID          int64
	PrivateKeyPath string
	WebhookSecret  string
}

// AIConfig describes the inference API.
type AIConfig struct {
	GeminiAPIKey    string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Timeout         time.Duration
	MaxRetries      int
}

// ReviewConfig controls which files are reviewed and how.
type ReviewConfig struct {
	AllowedExtensions  []string
	ExcludeDirs        []string
	CustomInstructions []string
	MaxWorkers         int
	RulesFile          string
}

// ServerConfig is only used by the webhook server.
type ServerConfig struct {
	Port       string
	MaxWorkers int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ShutdownTimeout bounds graceful shutdown of the HTTP listener.
	ShutdownTimeout time.Duration
}

// LoadConfig reads configuration from environment variables and an optional
// .env file in the working directory.
func LoadConfig() (*Config, error) {
	v := viper.New()
	ReadDotEnv(v, ".env")
	return Load(v)
}

// ReadDotEnv loads path into v as an env file. A missing file is ignored.
func ReadDotEnv(v *viper.Viper, path string) {
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			slog.Error("failed to read config file", "error", err)
		}
	}
}

// Load builds a Config from an already prepared viper instance. Environment
// variables always take precedence over values read from a file.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	prNumber, err := parsePRNumber(v.GetString("PR_NUMBER"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:          v.GetString("GITHUB_TOKEN"),
			APIURL:         v.GetString("GITHUB_API_URL"),
			Repository:     strings.TrimSpace(v.GetString("GITHUB_REPOSITORY")),
			PRNumber:       prNumber,
			AppID:          v.GetInt64("GITHUB_APP_ID"),
			PrivateKeyPath: v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			WebhookSecret:  v.GetString("GITHUB_WEBHOOK_SECRET"),
		},
		AI: AIConfig{
			GeminiAPIKey:    v.GetString("GEMINI_API_KEY"),
			Model:           v.GetString("GEMINI_MODEL"),
			BaseURL:         v.GetString("GEMINI_BASE_URL"),
			MaxOutputTokens: v.GetInt("GEMINI_MAX_OUTPUT_TOKENS"),
			Timeout:         v.GetDuration("GEMINI_TIMEOUT"),
			MaxRetries:      v.GetInt("GEMINI_MAX_RETRIES"),
		},
		Review: ReviewConfig{
			AllowedExtensions: NormalizeExtensions(splitList(v.GetString("ALLOWED_EXTENSIONS"))),
			MaxWorkers:        v.GetInt("REVIEW_MAX_WORKERS"),
			RulesFile:         v.GetString("REVIEW_RULES_FILE"),
		},
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			MaxWorkers:      v.GetInt("SERVER_MAX_WORKERS"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Logging: logger.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
	}

	if len(cfg.Review.AllowedExtensions) == 0 {
		cfg.Review.AllowedExtensions = append([]string(nil), DefaultAllowedExtensions...)
	}
	if cfg.Review.MaxWorkers <= 0 {
		cfg.Review.MaxWorkers = 1
	}
	if cfg.AI.MaxOutputTokens <= 0 || cfg.AI.MaxOutputTokens > math.MaxInt32 {
		return nil, fmt.Errorf("GEMINI_MAX_OUTPUT_TOKENS must be between 1 and %d, got %d", math.MaxInt32, cfg.AI.MaxOutputTokens)
	}
	if cfg.AI.MaxRetries < 0 {
		return nil, fmt.Errorf("GEMINI_MAX_RETRIES must not be negative, got %d", cfg.AI.MaxRetries)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Existing review workflows export the pull request number under this name.
	_ = v.BindEnv("PR_NUMBER", "PR_NUMBER", "GITHUB_EVENT_PULL_REQUEST_NUMBER")

	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_MAX_OUTPUT_TOKENS", 500)
	v.SetDefault("GEMINI_TIMEOUT", "2m")
	v.SetDefault("GEMINI_MAX_RETRIES", 0)
	v.SetDefault("REVIEW_MAX_WORKERS", 1)
	v.SetDefault("REVIEW_RULES_FILE", ".patch-warden.yml")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MAX_WORKERS", 5)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/patch-warden.private-key.pem")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
}

// ValidateAction checks the values required to review a single pull request
// from the environment. The model API key is not checked here:
// its absence is reported on the pull request itself.
func (c *Config) ValidateAction() error {
	if c.GitHub.Token == "" {
		return ErrMissingGitHubToken
	}
	if c.GitHub.Repository == "" {
		return ErrMissingRepository
	}
	if _, _, err := core.ParseRepository(c.GitHub.Repository); err != nil {
		return err
	}
	if c.GitHub.PRNumber == 0 {
		return ErrMissingPRNumber
	}
	return nil
}

// ValidateServer checks the values required by the webhook server.
func (c *Config) ValidateServer() error {
	if c.GitHub.WebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}
	if c.GitHub.AppID == 0 && c.GitHub.Token == "" {
		return fmt.Errorf("either GITHUB_APP_ID or GITHUB_TOKEN must be set")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY must be set")
	}
	return nil
}

// PullRequest returns the pull request named by GITHUB_REPOSITORY and PR_NUMBER.
func (c *Config) PullRequest() (core.PullRequestRef, error) {
	return core.NewPullRequestRef(c.GitHub.Repository, c.GitHub.PRNumber)
}

// Clone returns a deep copy, so per-run rules can be applied without touching
// the shared configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Review.AllowedExtensions = slices.Clone(c.Review.AllowedExtensions)
	clone.Review.ExcludeDirs = slices.Clone(c.Review.ExcludeDirs)
	clone.Review.CustomInstructions = slices.Clone(c.Review.CustomInstructions)
	return &clone
}

// ApplyRules merges a repository rules file into the review settings.
func (c *Config) ApplyRules(rules *core.RepoRules) {
	if rules == nil {
		return
	}
	if exts := NormalizeExtensions(rules.AllowedExtensions); len(exts) > 0 {
		c.Review.AllowedExtensions = exts
	}
	c.Review.ExcludeDirs = append(c.Review.ExcludeDirs, rules.ExcludeDirs...)
	c.Review.CustomInstructions = append(c.Review.CustomInstructions, rules.CustomInstructions...)
}

func parsePRNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPRNumber, raw)
	}
	return n, nil
}

// NormalizeExtensions lower-cases extensions, adds the leading dot and drops
// blanks and duplicates.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
}
