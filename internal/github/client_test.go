package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/patch-warden/internal/core"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gh := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return NewGitHubClient(gh, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetChangedFiles_Pagination(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/repos/octo/hello/pulls/5/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/pulls/5/files?page=2&per_page=100>; rel="next"`, srvURL))
			_, _ = io.WriteString(w, `[{"filename":"a.py","patch":"+print(1)"},{"filename":"logo.png"}]`)
		case "2":
			_, _ = io.WriteString(w, `[{"filename":"b.js","patch":"+x()"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	gh := github.NewClient(srv.Client())
	gh.BaseURL, _ = url.Parse(srv.URL + "/")
	client := NewGitHubClient(gh, slog.New(slog.NewTextHandler(io.Discard, nil)))

	files, err := client.GetChangedFiles(context.Background(), "octo", "hello", 5)
	require.NoError(t, err)
	assert.Equal(t, []ChangedFile{
		{Filename: "a.py", Patch: "+print(1)"},
		{Filename: "logo.png", Patch: ""},
		{Filename: "b.js", Patch: "+x()"},
	}, files)
}

func TestGetChangedFiles_Error(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	}))

	_, err := client.GetChangedFiles(context.Background(), "octo", "hello", 5)
	assert.Error(t, err)
}

func TestGetRepositoryAndPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"hello","full_name":"octo/hello"}`)
	})
	mux.HandleFunc("/repos/octo/hello/pulls/5", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"number":5,"title":"Add parser","head":{"sha":"abc"}}`)
	})
	client := newTestClient(t, mux)

	repo, err := client.GetRepository(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "octo/hello", repo.GetFullName())

	pr, err := client.GetPullRequest(context.Background(), "octo", "hello", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, pr.GetNumber())
	assert.Equal(t, "abc", pr.GetHead().GetSHA())
}

func TestGetFileContent(t *testing.T) {
	const rules = "exclude_dirs: [dist]\n"
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/contents/.patch-warden.yml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("ref"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"name":     ".patch-warden.yml",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(rules)),
		})
	})
	mux.HandleFunc("/repos/octo/hello/contents/absent.yml", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	})
	client := newTestClient(t, mux)

	data, err := client.GetFileContent(context.Background(), "octo", "hello", ".patch-warden.yml", "abc123")
	require.NoError(t, err)
	assert.Equal(t, rules, string(data))

	_, err = client.GetFileContent(context.Background(), "octo", "hello", "absent.yml", "")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestCommentPoster_Post(t *testing.T) {
	var gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/hello/issues/5/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var c github.IssueComment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		gotBody = c.GetBody()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1}`)
	})
	poster := NewCommentPoster(newTestClient(t, mux))

	ref := core.PullRequestRef{Owner: "octo", Repo: "hello", Number: 5}
	require.NoError(t, poster.Post(context.Background(), ref, "hello there"))
	assert.Equal(t, "hello there", gotBody)
}

func TestCommentPoster_PostFailure(t *testing.T) {
	poster := NewCommentPoster(newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Resource not accessible by integration"}`)
	})))

	err := poster.Post(context.Background(), core.PullRequestRef{Owner: "octo", Repo: "hello", Number: 5}, "x")
	assert.Error(t, err)
}

func TestNewPATClient_EnterpriseURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewPATClient(context.Background(), "t", "https://ghe.example.com/api/v3/", logger)
	assert.NoError(t, err)

	_, err = NewPATClient(context.Background(), "t", "://bad", logger)
	assert.Error(t, err)
}
