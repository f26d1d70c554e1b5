package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
)

const testSecret = "s3cret"

type fakeDispatcher struct {
	events []*core.GitHubEvent
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event *core.GitHubEvent) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *fakeDispatcher) Stop() {}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newRequest(eventType, body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-Hub-Signature-256", signature)
	return req
}

func newHandler(d core.JobDispatcher) *WebhookHandler {
	cfg := &config.Config{GitHub: config.GitHubConfig{WebhookSecret: testSecret}}
	return NewWebhookHandler(cfg, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const pullRequestOpened = `{
  "action": "opened",
  "number": 7,
  "pull_request": {"number": 7, "title": "Add parser", "draft": false, "head": {"sha": "abc123"}},
  "repository": {"name": "hello", "full_name": "octo/hello", "owner": {"login": "octo"}},
  "sender": {"login": "mona"},
  "installation": {"id": 42}
}`

const reviewComment = `{
  "action": "created",
  "issue": {"number": 9, "title": "Fix", "pull_request": {"url": "https://api.github.com/repos/octo/hello/pulls/9"}},
  "comment": {"body": "/review", "user": {"login": "mona"}},
  "repository": {"name": "hello", "full_name": "octo/hello", "owner": {"login": "octo"}}
}`

func TestHandle_PullRequestDispatched(t *testing.T) {
	d := &fakeDispatcher{}
	rec := httptest.NewRecorder()

	newHandler(d).Handle(rec, newRequest("pull_request", pullRequestOpened, sign(pullRequestOpened)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, d.events, 1)
	assert.Equal(t, core.PullRequestRef{Owner: "octo", Repo: "hello", Number: 7}, d.events[0].Ref())
	assert.Equal(t, int64(42), d.events[0].InstallationID)
	assert.Equal(t, "abc123", d.events[0].HeadSHA)
}

func TestHandle_ReviewCommentDispatched(t *testing.T) {
	d := &fakeDispatcher{}
	rec := httptest.NewRecorder()

	newHandler(d).Handle(rec, newRequest("issue_comment", reviewComment, sign(reviewComment)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, d.events, 1)
	assert.Equal(t, 9, d.events[0].PRNumber)
	assert.Equal(t, "mona", d.events[0].Sender)
}

func TestHandle_InvalidSignature(t *testing.T) {
	d := &fakeDispatcher{}
	rec := httptest.NewRecorder()

	newHandler(d).Handle(rec, newRequest("pull_request", pullRequestOpened, sign("something else")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, d.events)
}

func TestHandle_IgnoredEvents(t *testing.T) {
	closed := strings.Replace(pullRequestOpened, `"opened"`, `"closed"`, 1)
	chatter := strings.Replace(reviewComment, `"/review"`, `"looks good"`, 1)

	tests := []struct {
		name      string
		eventType string
		body      string
	}{
		{name: "closed pull request", eventType: "pull_request", body: closed},
		{name: "ordinary comment", eventType: "issue_comment", body: chatter},
		{name: "unhandled type", eventType: "star", body: `{"action":"created"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			rec := httptest.NewRecorder()

			newHandler(d).Handle(rec, newRequest(tt.eventType, tt.body, sign(tt.body)))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, d.events)
		})
	}
}

func TestHandle_QueueFull(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("job queue is full")}
	rec := httptest.NewRecorder()

	newHandler(d).Handle(rec, newRequest("pull_request", pullRequestOpened, sign(pullRequestOpened)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
