// Package frontier drives the four-stage traversal: area discovery, listing
// pagination and per-vacancy detail fetches, with run-scoped deduplication.
package frontier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

// ErrQueueClosed is returned by Dequeue once the frontier is exhausted.
var ErrQueueClosed = errors.New("queue closed")

// Queue is an unbounded FIFO of frontier requests with context-aware
// dequeue. Fan-out is uncontrolled (hundreds of areas times hundreds of
// pages), so enqueue never blocks a worker; memory stays bounded because the
// seen-set caps detail requests at one per vacancy id.
type Queue struct {
	mu     sync.Mutex
	items  []harvest.Request
	closed bool
	notify chan struct{}
}

// NewQueue constructs an empty open queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue appends a request. Enqueueing on a closed queue is a no-op.
func (q *Queue) Enqueue(req harvest.Request) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, req)
	q.mu.Unlock()
	q.wake()
}

// Dequeue pops the next request, blocking until one is available, the queue
// closes, or the context ends.
func (q *Queue) Dequeue(ctx context.Context) (harvest.Request, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items) > 0
			q.mu.Unlock()
			if remaining {
				q.wake()
			}
			return req, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			// Cascade the wakeup so sibling workers observe the close too.
			q.wake()
			return harvest.Request{}, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return harvest.Request{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
		case <-q.notify:
		}
	}
}

// Close marks the queue closed and wakes blocked consumers. Safe to call
// multiple times.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

// Len reports the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
