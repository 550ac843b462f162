// Package queue carries save requests from the mutation path to the
// persistence worker.
//
// A request only says "state changed"; the worker always writes the latest
// snapshot. When the buffer is full a new request is coalesced into the
// ones already waiting instead of blocking the caller.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/fantasyfamily/pkg/metrics"
)

const defaultCapacity = 64

// Request notes why a save was asked for.
type Request struct {
	Reason string
	At     time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue reports whether the request was buffered. A full buffer
	// coalesces the request and returns false with a nil error.
	Enqueue(ctx context.Context, r Request) (bool, error)

	// Dequeue returns the channel the worker reads from. It is closed by Close.
	Dequeue() <-chan Request

	Len() int
	Close() error
	IsClosed() bool
}

// SaveQueue implements Queue using a buffered channel.
type SaveQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

// New creates a save queue.
func New(opts ...Option) *SaveQueue {
	q := &SaveQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateQueueDepth(0)
	return q
}

func (q *SaveQueue) Enqueue(ctx context.Context, r Request) (bool, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false, err
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	select {
	case q.requests <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueDepth(len(q.requests))
		return true, nil
	default:
		metrics.RecordQueueCoalesced()
		return false, nil
	}
}

func (q *SaveQueue) Dequeue() <-chan Request {
	return q.requests
}

func (q *SaveQueue) Len() int {
	n := len(q.requests)
	metrics.UpdateQueueDepth(n)
	return n
}

// Close stops accepting requests. Buffered requests stay readable.
func (q *SaveQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

func (q *SaveQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
