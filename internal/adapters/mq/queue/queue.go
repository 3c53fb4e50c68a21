// Package queue holds the bounded task queue feeding the event loop.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/wikiline/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1024
)

// Task is a unit of work executed on the event loop.
type Task struct {
	Name     string
	Run      func()
	Enqueued time.Time
}

// Queue provides enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task without blocking.
	// Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, t Task) bool

	// EnqueueWait adds a task, blocking until there is room, ctx is done or
	// the queue is closed.
	EnqueueWait(ctx context.Context, t Task) error

	// Dequeue returns the channel tasks are delivered on.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the current number of queued tasks.
	Len(ctx context.Context) int

	// Close stops accepting tasks. Consumers should watch Done.
	Close() error

	// Done is closed once Close has been called.
	Done() <-chan struct{}

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel. The channel is
// never closed; closing the queue closes Done instead so late producers
// cannot panic on send.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	done      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.tasks = make(chan Task, q.capacity)
	metrics.UpdateLoopQueueDepth(0)

	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) bool { //nolint:gocritic // hugeParam: Task is passed by value through the channel
	if q.IsClosed() {
		return false
	}
	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now()
	}

	select {
	case q.tasks <- t:
		metrics.UpdateLoopQueueDepth(len(q.tasks))
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// EnqueueWait adds a task, waiting for room.
func (q *InMemoryQueue) EnqueueWait(ctx context.Context, t Task) error { //nolint:gocritic // hugeParam: Task is passed by value through the channel
	if q.IsClosed() {
		return ErrClosed
	}
	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now()
	}

	select {
	case q.tasks <- t:
		metrics.UpdateLoopQueueDepth(len(q.tasks))
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue returns the task channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Task {
	return q.tasks
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.tasks)
	metrics.UpdateLoopQueueDepth(size)
	return size
}

// Close stops the queue. Safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// Done is closed when the queue is closed.
func (q *InMemoryQueue) Done() <-chan struct{} {
	return q.done
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
