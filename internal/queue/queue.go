package queue

import (
	"context"
	"sync"
)

// FIFO is an unbounded first-in-first-out queue of jobs plus a single
// processing slot. The gateway appends from its event handlers while the
// worker pops from its own goroutine; one mutex covers append, length reads
// and pop so the position returned by Enqueue is exact.
type FIFO struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []*Job
	busy  bool
}

// NewFIFO creates an empty queue.
func NewFIFO() *FIFO {
	q := &FIFO{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends the job to the tail and returns the number of jobs
// strictly ahead of it in the queue. A job occupying the processing slot is
// not counted: 0 means the job is next in line, even if it has to wait for
// the current download to finish.
func (q *FIFO) Enqueue(job *Job) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	ahead := len(q.items)
	q.items = append(q.items, job)
	q.cond.Signal()
	return ahead
}

// Depth returns the number of queued jobs, excluding any job currently
// being processed.
func (q *FIFO) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns whether the processing slot is occupied and how many
// jobs are waiting behind it, read under a single lock acquisition.
func (q *FIFO) Snapshot() (busy bool, waiting int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busy, len(q.items)
}

// Dequeue removes and returns the head job, suspending the caller until one
// is available or the context is cancelled. The processing slot is marked
// occupied atomically with the pop; the caller must release it with Done.
func (q *FIFO) Dequeue(ctx context.Context) (*Job, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.cond.Wait()
	}

	job := q.items[0]
	q.items = q.items[1:]
	q.busy = true
	return job, nil
}

// Done releases the processing slot after the dequeued job reached a
// terminal state.
func (q *FIFO) Done() {
	q.mu.Lock()
	q.busy = false
	q.mu.Unlock()
}
