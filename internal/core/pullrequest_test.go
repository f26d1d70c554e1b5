package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPullRequestRef(t *testing.T) {
	tests := []struct {
		name       string
		repository string
		number     int
		want       PullRequestRef
		wantErr    bool
	}{
		{name: "valid", repository: "octo/hello", number: 3, want: PullRequestRef{Owner: "octo", Repo: "hello", Number: 3}},
		{name: "surrounding space", repository: " octo/hello ", number: 1, want: PullRequestRef{Owner: "octo", Repo: "hello", Number: 1}},
		{name: "missing name", repository: "octo/", number: 1, wantErr: true},
		{name: "too many segments", repository: "octo/hello/world", number: 1, wantErr: true},
		{name: "no slash", repository: "octo", number: 1, wantErr: true},
		{name: "zero number", repository: "octo/hello", number: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPullRequestRef(tt.repository, tt.number)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "octo/hello", got.FullName())
		})
	}
}

func TestRunSummaryAdd(t *testing.T) {
	var s RunSummary
	s.Add(FileOutcome{Filename: "a.py", State: FileCommented})
	s.Add(FileOutcome{Filename: "b.md", State: FileSkipped, Reason: "extension not allowed"})
	s.Add(FileOutcome{Filename: "c.js", State: FileFatal})
	s.Add(FileOutcome{Filename: "d.py", State: FileAborted, Reason: "run aborted"})

	assert.Equal(t, 1, s.Commented)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Aborted)
	assert.Len(t, s.Outcomes, 4)
}
