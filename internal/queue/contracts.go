package queue

import "context"

// Fetcher materializes a remote clip into the downloads directory and
// returns the resulting filename (not a full path).
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, id string) (string, error)
}

// Gateway delivers terminal job results back to the requester. Each job
// produces exactly one call, to exactly one of the two methods.
type Gateway interface {
	PostResult(ref RequesterRef, jobID, publicURL string)
	PostFailure(ref RequesterRef, reason string)
}

// Notifier receives presence updates whenever the worker state or queue
// depth changes. Implementations must treat calls as fire-and-forget.
type Notifier interface {
	PublishStatus(busy bool, waiting int)
}
