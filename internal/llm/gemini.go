package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/sevigo/patch-warden/internal/config"
)

// GeminiConfig configures the Gemini reviewer.
type GeminiConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	// Timeout bounds a single generateContent call. Zero means no timeout.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transport failure.
	MaxRetries int
	HTTPClient *http.Client
}

// NewGeminiConfig extracts the inference settings from the application config.
func NewGeminiConfig(cfg *config.Config) GeminiConfig {
	return GeminiConfig{
		APIKey:          cfg.AI.GeminiAPIKey,
		Model:           cfg.AI.Model,
		BaseURL:         cfg.AI.BaseURL,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Timeout:         cfg.AI.Timeout,
		MaxRetries:      cfg.AI.MaxRetries,
	}
}

// GeminiReviewer implements Reviewer on top of the Gemini generateContent API.
type GeminiReviewer struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
	timeout         time.Duration
	maxRetries      int
	newBackOff      func() backoff.BackOff
	logger          *slog.Logger
}

// NewGeminiReviewer creates a reviewer for the configured model.
func NewGeminiReviewer(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiReviewer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiReviewer{
		client:          client,
		model:           cfg.Model,
		maxOutputTokens: int32(cfg.MaxOutputTokens),
		timeout:         cfg.Timeout,
		maxRetries:      cfg.MaxRetries,
		newBackOff:      func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:          logger,
	}, nil
}

// Review sends prompt to the model and returns the text of the first candidate.
// Only transport failures are retried.
func (g *GeminiReviewer) Review(ctx context.Context, prompt string) (string, error) {
	var text string
	attempt := 0

	op := func() error {
		attempt++
		t, err := g.generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, ErrTransport) {
				return err
			}
			return backoff.Permanent(err)
		}
		text = t
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		g.logger.Warn("gemini request failed, retrying", "attempt", attempt, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", err
	}
	return text, nil
}

func (g *GeminiReviewer) generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	text, err := extractText(resp)
	if g.logger.Enabled(ctx, slog.LevelDebug) {
		raw, _ := json.Marshal(resp)
		g.logger.Debug("gemini response received",
			"model", g.model,
			"duration", time.Since(start).Round(time.Millisecond),
			"candidates", candidateCount(resp),
			"text_length", len(text),
			"raw_response", string(raw),
		)
	}
	if err != nil {
		g.logger.Warn("could not parse gemini response", "error", err)
		return "", err
	}
	return text, nil
}

// extractText returns the concatenated text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		reason := ""
		if candidate != nil {
			reason = string(candidate.FinishReason)
		}
		return "", fmt.Errorf("%w: first candidate has no content (finish reason %q)", ErrResponseFormat, reason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: first candidate has no text (finish reason %q)", ErrResponseFormat, candidate.FinishReason)
	}
	return sb.String(), nil
}

func candidateCount(resp *genai.GenerateContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Candidates)
}
