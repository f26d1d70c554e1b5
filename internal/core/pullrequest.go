package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRepository is returned when a repository identifier is not of the form owner/name.
var ErrInvalidRepository = errors.New("repository must be of the form owner/name")

// PullRequestRef identifies one pull request. It is built once per run and never changed.
type PullRequestRef struct {
	Owner  string
	Repo   string
	Number int
}

// NewPullRequestRef builds a reference from an "owner/name" identifier and a PR number.
func NewPullRequestRef(repository string, number int) (PullRequestRef, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return PullRequestRef{}, err
	}
	if number <= 0 {
		return PullRequestRef{}, fmt.Errorf("pull request number must be positive, got: %d", number)
	}
	return PullRequestRef{Owner: owner, Repo: repo, Number: number}, nil
}

// ParseRepository splits "owner/name" into its two parts.
func ParseRepository(repository string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	return parts[0], parts[1], nil
}

// FullName returns the "owner/name" form of the repository.
func (r PullRequestRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s#%d", r.FullName(), r.Number)
}
