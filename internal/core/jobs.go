// Package core defines the essential interfaces and data structures shared by
// the review runner, the webhook server and the CLI.
package core

import (
	"context"
)

// JobDispatcher accepts review jobs for asynchronous processing. It decouples
// the webhook handler from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch queues the event. It returns an error when the queue is full.
	Dispatch(ctx context.Context, event *GitHubEvent) error
	// Stop waits for queued and running jobs to finish.
	Stop()
}

// Job is a single unit of work triggered by a GitHubEvent.
type Job interface {
	Run(ctx context.Context, event *GitHubEvent) error
}
