// Package scheduler implements clock.Scheduler on top of the event loop, and
// provides a manual clock for tests.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wikiline/internal/adapters/mq/queue"
	"github.com/okian/wikiline/internal/adapters/mq/worker"
	"github.com/okian/wikiline/internal/domain/clock"
	"github.com/okian/wikiline/pkg/logger"
)

// Loop is a clock.Scheduler whose callbacks all run on one worker goroutine.
type Loop struct {
	queue  *queue.InMemoryQueue
	worker *worker.EventLoop
	logger logger.Logger

	queueSize int

	mu     sync.Mutex
	next   clock.Handle
	timers map[clock.Handle]*time.Timer
}

var _ clock.Scheduler = (*Loop)(nil)

// NewLoop creates a loop. Call Start before scheduling anything.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		queueSize: 1024,
		logger:    logger.Get().Named("scheduler"),
		timers:    make(map[clock.Handle]*time.Timer),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queue = queue.NewInMemoryQueue(queue.WithCapacity(l.queueSize))
	l.worker = worker.NewEventLoop(l.queue, worker.WithLogger(l.logger.Named("worker")))
	return l
}

// Start runs the worker goroutine until ctx is done or Stop is called.
func (l *Loop) Start(ctx context.Context) {
	go l.worker.Run(ctx)
}

// Stop closes the queue, cancels pending timers and waits for the worker.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
	l.mu.Unlock()

	_ = l.queue.Close()
	if err := l.worker.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop loop: %w", err)
	}
	return nil
}

// Post queues fn to run on the loop, waiting for room if the queue is full.
func (l *Loop) Post(ctx context.Context, name string, fn func()) error {
	if err := l.queue.EnqueueWait(ctx, queue.Task{Name: name, Run: fn}); err != nil {
		return fmt.Errorf("post %s: %w", name, err)
	}
	return nil
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(ctx, "do", func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.worker.Done():
		return queue.ErrClosed
	}
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) clock.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	h := l.next
	l.timers[h] = time.AfterFunc(d, func() {
		err := l.Post(context.Background(), "timer", func() {
			// Cancel may have run between the timer firing and now.
			if l.take(h) {
				fn()
			}
		})
		if err != nil {
			l.take(h)
			l.logger.Debug(context.Background(), "timer dropped", logger.Error(err))
		}
	})
	return h
}

// Cancel stops a pending timer.
func (l *Loop) Cancel(h clock.Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.timers[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(l.timers, h)
	return true
}

// Spawn runs work on its own goroutine and posts its continuation.
func (l *Loop) Spawn(work func() func()) {
	go func() {
		cont := work()
		if cont == nil {
			return
		}
		if err := l.Post(context.Background(), "continuation", cont); err != nil {
			l.logger.Debug(context.Background(), "continuation dropped", logger.Error(err))
		}
	}()
}

// Pending is the number of timers not yet fired or cancelled.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

func (l *Loop) take(h clock.Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.timers[h]; !ok {
		return false
	}
	delete(l.timers, h)
	return true
}
