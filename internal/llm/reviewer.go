// Package llm talks to the generative-language API and renders review prompts.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrTransport covers network failures and non-2xx responses from the inference API.
	ErrTransport = errors.New("inference request failed")
	// ErrResponseFormat is returned when a candidate carries no text content.
	ErrResponseFormat = errors.New("unexpected inference response format")
	// ErrNoCandidates is returned when the response contains no candidates at all.
	ErrNoCandidates = errors.New("inference response has no candidates")
)

// Reviewer sends a rendered prompt to a model and returns the generated text.
//
//go:generate mockgen -destination=../../mocks/mock_reviewer.go -package=mocks . Reviewer
type Reviewer interface {
	Review(ctx context.Context, prompt string) (string, error)
}
