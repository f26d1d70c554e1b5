package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/sevigo/patch-warden/internal/core"
)

// MissingAPIKeyComment is posted once when the model API key is not configured.
const MissingAPIKeyComment = "### ⚠️ patch-warden\n\n" +
	"`GEMINI_API_KEY` is not set, so no automated review was performed. " +
	"Add the key as a repository secret and re-run the workflow."

// FormatFileReview builds the comment posted for one changed file.
func FormatFileReview(filename, review string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### 🤖 Review for %s\n\n", inlineCode(filename))
	sb.WriteString(strings.TrimSpace(review))
	sb.WriteString("\n")
	return sb.String()
}

// inlineCode wraps s in a code span, widening the fence when s contains backticks.
func inlineCode(s string) string {
	if !strings.Contains(s, "`") {
		return "`" + s + "`"
	}
	return "`` " + s + " ``"
}

// CommentPoster posts review comments as issue comments on the pull request.
type CommentPoster struct {
	client Client
}

// NewCommentPoster creates a poster backed by client.
func NewCommentPoster(client Client) *CommentPoster {
	return &CommentPoster{client: client}
}

// Post creates one issue comment on the referenced pull request.
func (p *CommentPoster) Post(ctx context.Context, ref core.PullRequestRef, body string) error {
	return p.client.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, body)
}
