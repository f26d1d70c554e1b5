package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileReview(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		review   string
		contains []string
	}{
		{
			name:     "plain filename",
			filename: "src/a.py",
			review:   "  Looks fine.\n",
			contains: []string{"### 🤖 Review for `src/a.py`", "\n\nLooks fine.\n"},
		},
		{
			name:     "filename with backtick",
			filename: "we`ird.js",
			review:   "ok",
			contains: []string{"`` we`ird.js ``"},
		},
		{
			name:     "error text is kept verbatim",
			filename: "b.js",
			review:   "Failed to get review: gemini request failed",
			contains: []string{"b.js", "Failed to get review: gemini request failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatFileReview(tt.filename, tt.review)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
		})
	}
}

func TestMissingAPIKeyComment(t *testing.T) {
	assert.Contains(t, MissingAPIKeyComment, "GEMINI_API_KEY")
}
