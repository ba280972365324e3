// Package queue provides the buffer between score submission and the
// worker pool that applies reports to the rank indexes.
//
// The only implementation is an in-memory bounded queue; enqueue never
// blocks, callers decide what to do with rejected reports.
package queue

import (
	"context"
	"sync"

	"github.com/podiumlabs/podium/internal/domain/model"
	"github.com/podiumlabs/podium/pkg/metrics"
)

const defaultCapacity = 100000

// Report is the payload type flowing through the queue.
type Report = model.ScoreReport

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report to the queue.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, r Report) bool

	// Dequeue returns a channel that yields reports as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Report

	// Len returns the current number of buffered reports.
	Len(ctx context.Context) int

	// Close shuts down the queue. Buffered reports are still delivered
	// to consumers; new enqueues are rejected.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	reports  chan Report
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates an in-memory queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}

	q.reports = make(chan Report, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a report to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Report) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.reports <- r:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that yields reports until the queue is
// closed and drained, or the context is cancelled.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Report {
	out := make(chan Report)
	go func() {
		defer close(out)
		for r := range q.reports {
			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of buffered reports.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.reports)
}

// Close shuts down the queue. Safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.reports)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.reports)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
