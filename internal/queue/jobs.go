package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/ablomer/steam-clip-bot/internal/types"
)

// RequesterRef is the opaque handle back to the invoking context. It carries
// just enough to address the originating channel, mention the user, and send
// ephemeral follow-ups on the original interaction.
type RequesterRef struct {
	ChannelID string
	UserID    string
	AppID     string
	Token     string
}

// Job represents one request to fetch and store a single remote clip
type Job struct {
	ID          string
	SourceURL   string
	Requester   RequesterRef
	SubmittedAt time.Time
	State       string
	ResultPath  string
	Err         error
}

// NewJob creates a queued job with a freshly assigned id. The id doubles as
// the storage filename stem and the public download-path token.
func NewJob(sourceURL string, requester RequesterRef) *Job {
	return &Job{
		ID:          uuid.New().String(),
		SourceURL:   sourceURL,
		Requester:   requester,
		SubmittedAt: time.Now(),
		State:       types.StateQueued,
	}
}
