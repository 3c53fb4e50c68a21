// Package worker runs the single goroutine that executes event loop tasks.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/wikiline/internal/adapters/mq/queue"
	"github.com/okian/wikiline/pkg/logger"
	"github.com/okian/wikiline/pkg/metrics"
)

// Default worker configuration constants.
const (
	slowTaskThreshold = 50 * time.Millisecond
)

// Queue defines how the worker receives tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
	Len(ctx context.Context) int
	Done() <-chan struct{}
}

// Worker drains a queue until stopped.
type Worker interface {
	// Run executes tasks until ctx is canceled, the queue is closed or
	// Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for Run to return.
	Shutdown(ctx context.Context) error
}

// EventLoop executes tasks one at a time in arrival order. A panicking task
// is logged and skipped; the loop keeps running.
type EventLoop struct {
	queue Queue
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewEventLoop creates a worker with configuration options.
func NewEventLoop(q Queue, opts ...Option) *EventLoop {
	w := &EventLoop{
		queue:    q,
		name:     "loop",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("loop"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run starts the loop.
func (w *EventLoop) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-w.queue.Done():
			return
		case t := <-tasks:
			metrics.UpdateLoopQueueDepth(w.queue.Len(ctx))
			w.execute(ctx, t)
		}
	}
}

// Done is closed when Run has returned.
func (w *EventLoop) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *EventLoop) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// execute runs a single task, recovering from panics.
func (w *EventLoop) execute(ctx context.Context, t queue.Task) { //nolint:gocritic // hugeParam: Task arrives by value from the channel
	if t.Run == nil {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordLoopTaskPanic()
			w.logger.Error(ctx, "task panicked",
				logger.String("task", t.Name),
				logger.Any("panic", r),
			)
		}
		if took := time.Since(start); took > slowTaskThreshold {
			w.logger.Warn(ctx, "slow task",
				logger.String("task", t.Name),
				logger.Duration("took", took),
				logger.Duration("waited", start.Sub(t.Enqueued)),
			)
		}
	}()
	t.Run()
}
