// Package memory provides the bounded run queue feeding the worker pool.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/webapi-explorer/internal/explorer"
)

// ErrClosed is returned once the queue has been closed.
var ErrClosed = explorer.ErrQueueClosed

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch     chan explorer.QueueItem
	mu     sync.RWMutex
	closed bool
}

var _ explorer.Queue = (*Queue)(nil)

// NewQueue constructs a queue holding up to capacity pending runs.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{ch: make(chan explorer.QueueItem, capacity)}
}

// Enqueue pushes a run, blocking while the queue is full until ctx ends.
func (q *Queue) Enqueue(ctx context.Context, item explorer.QueueItem) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		return nil
	}
}

// Dequeue pops the next run, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (explorer.QueueItem, error) {
	select {
	case <-ctx.Done():
		return explorer.QueueItem{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item, ok := <-q.ch:
		if !ok {
			return explorer.QueueItem{}, ErrClosed
		}
		return item, nil
	}
}

// Len reports how many runs are waiting.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops accepting runs. Pending runs can still be dequeued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
