// Package clock defines the scheduling capability the game logic runs on.
//
// Implementations guarantee that every callback, whether a timer or the
// continuation of spawned work, executes on the same logical thread as the
// code that scheduled it, and that a cancelled timer never fires.
package clock

import "time"

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler schedules work on the game's logical thread.
type Scheduler interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Handle

	// Cancel stops a pending callback. It reports whether the callback was
	// still pending.
	Cancel(h Handle) bool

	// Spawn runs work off the logical thread and then runs the function it
	// returns, if any, back on it.
	Spawn(work func() func())
}

// Registry tracks handles issued for one purpose so they can all be
// cancelled together. It is not safe for concurrent use; it lives on the
// logical thread with its owner.
type Registry struct {
	sched   Scheduler
	handles map[Handle]struct{}
}

// NewRegistry creates an empty registry over sched.
func NewRegistry(sched Scheduler) *Registry {
	return &Registry{sched: sched, handles: make(map[Handle]struct{})}
}

// After schedules fn and records its handle. The handle is forgotten once fn runs.
func (r *Registry) After(d time.Duration, fn func()) Handle {
	var h Handle
	h = r.sched.AfterFunc(d, func() {
		delete(r.handles, h)
		fn()
	})
	r.handles[h] = struct{}{}
	return h
}

// CancelAll cancels every pending handle and empties the registry.
func (r *Registry) CancelAll() int {
	n := 0
	for h := range r.handles {
		if r.sched.Cancel(h) {
			n++
		}
		delete(r.handles, h)
	}
	return n
}

// Len is the number of pending handles.
func (r *Registry) Len() int {
	return len(r.handles)
}
