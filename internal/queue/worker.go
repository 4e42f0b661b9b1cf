package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/ablomer/steam-clip-bot/internal/logging"
	"github.com/ablomer/steam-clip-bot/internal/storage"
	"github.com/ablomer/steam-clip-bot/internal/types"
)

// Worker is the single long-lived loop that drains the queue. It dequeues
// one job at a time, runs the fetch, and reports the outcome; no two
// downloads ever run concurrently.
type Worker struct {
	queue    *FIFO
	fetcher  Fetcher
	gateway  Gateway
	notifier Notifier
	store    *storage.Store
	index    *storage.ClipIndex
	baseURL  string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewWorker creates a worker. index may be nil, in which case produced clips
// are not indexed.
func NewWorker(
	q *FIFO,
	fetcher Fetcher,
	gateway Gateway,
	notifier Notifier,
	store *storage.Store,
	index *storage.ClipIndex,
	baseURL string,
	timeout time.Duration,
) *Worker {
	return &Worker{
		queue:    q,
		fetcher:  fetcher,
		gateway:  gateway,
		notifier: notifier,
		store:    store,
		index:    index,
		baseURL:  baseURL,
		timeout:  timeout,
		log:      logging.Component("worker"),
	}
}

// Run processes jobs until the context is cancelled. It is meant to be
// started exactly once, as a goroutine, from main.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Msg("worker started, waiting for jobs")

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			w.log.Info().Msg("worker stopping")
			return
		}

		w.runJob(ctx, job)
		w.queue.Done()

		// With jobs still queued the next iteration goes straight back to
		// Busy; publishing the transient snapshot here would flash the idle
		// text while clips are waiting.
		if busy, waiting := w.queue.Snapshot(); busy || waiting == 0 {
			w.notifier.PublishStatus(busy, waiting)
		}
	}
}

// runJob carries one job from Processing to a terminal state. Every failure
// mode, panics included, ends here: nothing may escape and kill the loop.
func (w *Worker) runJob(ctx context.Context, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().
				Str("job_id", job.ID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic while processing job")
			job.State = types.StateFailed
			job.Err = fmt.Errorf("internal error: %v", r)
			w.discardArtifacts(job.ID)
			w.gateway.PostFailure(job.Requester, "an unexpected error occurred")
		}
	}()

	job.State = types.StateProcessing
	busy, waiting := w.queue.Snapshot()
	w.notifier.PublishStatus(busy, waiting)

	w.log.Info().Str("job_id", job.ID).Str("url", job.SourceURL).Msg("processing download")

	fetchCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	filename, err := w.fetcher.Fetch(fetchCtx, job.SourceURL, job.ID)
	if err != nil {
		w.fail(job, err)
		return
	}

	path := w.store.Path(filename)
	info, err := os.Stat(path)
	if err != nil {
		// The fetcher reported success but the file is not there. Treat as a
		// storage fault: it likely affects every subsequent job too.
		w.log.Error().Str("job_id", job.ID).Err(err).Msg("stored file missing after fetch")
		w.fail(job, fmt.Errorf("stored file missing: %w", err))
		return
	}

	job.ResultPath = path
	job.State = types.StateSucceeded

	if w.index != nil {
		clip := types.Clip{
			ID:          job.ID,
			SourceURL:   job.SourceURL,
			Filename:    filename,
			SizeBytes:   info.Size(),
			RequestedBy: job.Requester.UserID,
			CreatedAt:   time.Now(),
		}
		if err := w.index.Record(clip); err != nil {
			w.log.Warn().Str("job_id", job.ID).Err(err).Msg("failed to index clip")
		}
	}

	publicURL := w.baseURL + "/" + filename
	w.gateway.PostResult(job.Requester, job.ID, publicURL)
	w.log.Info().Str("job_id", job.ID).Str("file", filename).Msg("download complete")
}

// fail marks the job terminal, scrubs any partial artifacts so nothing is
// retrievable under its id, and reports a human-readable reason.
func (w *Worker) fail(job *Job, err error) {
	job.State = types.StateFailed
	job.Err = err
	w.discardArtifacts(job.ID)

	reason := fmt.Sprintf("failed to download clip: %v", err)
	if errors.Is(err, context.DeadlineExceeded) {
		reason = fmt.Sprintf("download timed out after %s", w.timeout)
	}

	w.log.Error().Str("job_id", job.ID).Err(err).Msg("download failed")
	w.gateway.PostFailure(job.Requester, reason)
}

func (w *Worker) discardArtifacts(id string) {
	if err := w.store.RemoveArtifacts(id); err != nil {
		w.log.Warn().Str("job_id", id).Err(err).Msg("failed to remove artifacts")
	}
}
