package review

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/sevigo/patch-warden/internal/core"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	failedColor = color.New(color.FgRed)
	dimColor    = color.New(color.FgHiBlack)
)

// ConsolePoster prints comments to a terminal instead of publishing them.
type ConsolePoster struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsolePoster creates a poster that writes to w.
func NewConsolePoster(w io.Writer) *ConsolePoster {
	return &ConsolePoster{w: w}
}

// Post writes body to the terminal. The first line is highlighted as a header
// and failed reviews are shown in red.
func (p *ConsolePoster) Post(_ context.Context, ref core.PullRequestRef, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	header, rest, _ := strings.Cut(body, "\n")
	if _, err := dimColor.Fprintf(p.w, "── %s\n", ref); err != nil {
		return err
	}
	if _, err := headerColor.Fprintln(p.w, header); err != nil {
		return err
	}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, FailedReviewPrefix) {
		_, err := failedColor.Fprintln(p.w, rest)
		return err
	}
	_, err := io.WriteString(p.w, rest+"\n\n")
	return err
}
