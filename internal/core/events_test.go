package core

import (
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo() *github.Repository {
	return &github.Repository{
		Name:     github.Ptr("patch-warden"),
		FullName: github.Ptr("sevigo/patch-warden"),
		Owner:    &github.User{Login: github.Ptr("sevigo")},
	}
}

func TestEventFromPullRequest(t *testing.T) {
	base := func(action string, draft bool) *github.PullRequestEvent {
		return &github.PullRequestEvent{
			Action: github.Ptr(action),
			Repo:   testRepo(),
			PullRequest: &github.PullRequest{
				Number: github.Ptr(42),
				Title:  github.Ptr("Add parser"),
				Draft:  github.Ptr(draft),
				Head:   &github.PullRequestBranch{SHA: github.Ptr("abc123")},
			},
			Sender:       &github.User{Login: github.Ptr("octocat")},
			Installation: &github.Installation{ID: github.Ptr(int64(7))},
		}
	}

	t.Run("opened is accepted", func(t *testing.T) {
		ev, err := EventFromPullRequest(base("opened", false))
		require.NoError(t, err)
		assert.Equal(t, "sevigo", ev.RepoOwner)
		assert.Equal(t, "patch-warden", ev.RepoName)
		assert.Equal(t, 42, ev.PRNumber)
		assert.Equal(t, "abc123", ev.HeadSHA)
		assert.Equal(t, int64(7), ev.InstallationID)
		assert.Equal(t, PullRequestRef{Owner: "sevigo", Repo: "patch-warden", Number: 42}, ev.Ref())
	})

	t.Run("synchronize is accepted", func(t *testing.T) {
		_, err := EventFromPullRequest(base("synchronize", false))
		assert.NoError(t, err)
	})

	t.Run("closed is ignored", func(t *testing.T) {
		_, err := EventFromPullRequest(base("closed", false))
		assert.ErrorIs(t, err, ErrEventIgnored)
	})

	t.Run("draft is ignored", func(t *testing.T) {
		_, err := EventFromPullRequest(base("opened", true))
		assert.ErrorIs(t, err, ErrEventIgnored)
	})

	t.Run("missing repository is rejected", func(t *testing.T) {
		ev := base("opened", false)
		ev.Repo = nil
		_, err := EventFromPullRequest(ev)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEventIgnored)
	})
}

func TestEventFromIssueComment(t *testing.T) {
	base := func(body string) *github.IssueCommentEvent {
		return &github.IssueCommentEvent{
			Action: github.Ptr("created"),
			Repo:   testRepo(),
			Issue: &github.Issue{
				Number:           github.Ptr(9),
				PullRequestLinks: &github.PullRequestLinks{URL: github.Ptr("https://api.github.com/repos/sevigo/patch-warden/pulls/9")},
			},
			Comment: &github.IssueComment{
				Body: github.Ptr(body),
				User: &github.User{Login: github.Ptr("octocat")},
			},
		}
	}

	t.Run("review command", func(t *testing.T) {
		ev, err := EventFromIssueComment(base("  /Review "))
		require.NoError(t, err)
		assert.Equal(t, 9, ev.PRNumber)
		assert.Equal(t, "octocat", ev.Sender)
		assert.Zero(t, ev.InstallationID)
	})

	t.Run("other comment", func(t *testing.T) {
		_, err := EventFromIssueComment(base("looks good"))
		assert.ErrorIs(t, err, ErrEventIgnored)
	})

	t.Run("plain issue", func(t *testing.T) {
		ev := base("/review")
		ev.Issue.PullRequestLinks = nil
		_, err := EventFromIssueComment(ev)
		assert.ErrorIs(t, err, ErrEventIgnored)
	})
}
