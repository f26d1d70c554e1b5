package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// ErrEventIgnored marks webhook events that are valid but do not request a review.
var ErrEventIgnored = errors.New("event does not request a review")

// reviewActions lists the pull_request actions that trigger a review.
var reviewActions = map[string]struct{}{
	"opened":           {},
	"reopened":         {},
	"synchronize":      {},
	"ready_for_review": {},
}

// GitHubEvent is the internal view of a webhook event that requests a review.
type GitHubEvent struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber int
	PRTitle  string
	HeadSHA  string

	// Sender is the user who opened, pushed or commented.
	Sender         string
	InstallationID int64
}

// Ref returns the pull request this event refers to.
func (e *GitHubEvent) Ref() PullRequestRef {
	return PullRequestRef{Owner: e.RepoOwner, Repo: e.RepoName, Number: e.PRNumber}
}

// EventFromPullRequest converts a pull_request webhook into a GitHubEvent.
// Only the actions that change the reviewable diff are accepted; draft pull
// requests are ignored until they are marked ready for review.
func EventFromPullRequest(event *github.PullRequestEvent) (*GitHubEvent, error) {
	if _, ok := reviewActions[event.GetAction()]; !ok {
		return nil, fmt.Errorf("%w: action %q", ErrEventIgnored, event.GetAction())
	}

	pr := event.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull request is missing from the event")
	}
	if pr.GetDraft() {
		return nil, fmt.Errorf("%w: pull request is a draft", ErrEventIgnored)
	}

	repo := event.GetRepo()
	if repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}
	if pr.GetNumber() <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", pr.GetNumber())
	}

	return &GitHubEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       pr.GetNumber(),
		PRTitle:        pr.GetTitle(),
		HeadSHA:        pr.GetHead().GetSHA(),
		Sender:         event.GetSender().GetLogin(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}

// EventFromIssueComment converts an issue_comment webhook into a GitHubEvent.
// It accepts only a "/review" command posted on a pull request.
func EventFromIssueComment(event *github.IssueCommentEvent) (*GitHubEvent, error) {
	if event.GetAction() != "created" {
		return nil, fmt.Errorf("%w: comment action %q", ErrEventIgnored, event.GetAction())
	}
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("%w: comment is not on a pull request", ErrEventIgnored)
	}
	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), "/review") {
		return nil, fmt.Errorf("%w: comment is not a review command", ErrEventIgnored)
	}

	repo := event.GetRepo()
	if repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	if event.GetComment().GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	return &GitHubEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       prNumber,
		PRTitle:        event.GetIssue().GetTitle(),
		Sender:         event.GetComment().GetUser().GetLogin(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
