package types

import "time"

// Job states. Transitions are monotonic:
// Queued -> Processing -> Succeeded | Failed.
const (
	StateQueued     = "QUEUED"
	StateProcessing = "PROCESSING"
	StateSucceeded  = "SUCCEEDED"
	StateFailed     = "FAILED"
)

// Clip describes one stored video file. Unlike a job, which only lives in
// memory for the duration of a request, clips survive as files on disk and
// as rows in the clip index.
type Clip struct {
	ID          string
	SourceURL   string
	Filename    string
	SizeBytes   int64
	RequestedBy string
	CreatedAt   time.Time
}
