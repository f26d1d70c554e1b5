// Package gitutil holds helpers for working with GitHub pull request locations.
package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var prURLRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.)?github\.com/([^/]+)/([^/]+)/pull/(\d+)(?:/files)?$`)

// ParsePullRequestURL parses a GitHub pull request URL and extracts the owner,
// repo and PR number. Supported format: https://github.com/{owner}/{repo}/pull/{number}
// with an optional trailing /files.
func ParsePullRequestURL(url string) (owner, repo string, prNumber int, err error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")

	matches := prURLRegex.FindStringSubmatch(url)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	prNumber, err = strconv.Atoi(matches[3])
	if err != nil || prNumber <= 0 {
		return "", "", 0, fmt.Errorf("invalid PR number '%s'", matches[3])
	}

	return matches[1], matches[2], prNumber, nil
}
