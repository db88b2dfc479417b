package committer

import (
	"context"
	"sync"

	"github.com/celer-network/rollup-committer/types"
)

// Submission is an operation ready to be sent with the nonce it was persisted under.
type Submission struct {
	Op   types.Operation
	Meta types.SubmissionMeta
}

// Queue is the unbounded FIFO between the producers (committer, recovery) and the single
// sender worker. Push never blocks.
type Queue struct {
	mu     sync.Mutex
	items  []Submission
	closed bool
	signal chan struct{} // buffered, size 1
}

func NewQueue() *Queue {
	return &Queue{
		items:  make([]Submission, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Push appends s to the back of the queue.
func (q *Queue) Push(s Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, s)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes the front submission, waiting until one is available. It returns false once
// the queue is closed and drained, or when ctx is done.
func (q *Queue) Pop(ctx context.Context) (Submission, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			s := q.items[0]
			q.items[0] = Submission{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return s, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Submission{}, false
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return Submission{}, false
		}
	}
}

// Close stops admitting submissions. Queued ones are still handed out by Pop.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.signal)
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
