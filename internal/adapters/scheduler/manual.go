package scheduler

import (
	"sort"
	"time"

	"github.com/okian/wikiline/internal/domain/clock"
)

// Manual is a deterministic clock.Scheduler. Time only moves on Advance and
// spawned work only runs on RunPending. It is meant to be driven from a
// single goroutine.
type Manual struct {
	now    time.Time
	next   clock.Handle
	seq    uint64
	timers map[clock.Handle]*manualTimer
	work   []func() func()
}

type manualTimer struct {
	due time.Time
	seq uint64
	fn  func()
}

var _ clock.Scheduler = (*Manual)(nil)

// NewManual creates a manual clock.
func NewManual(opts ...ManualOption) *Manual {
	m := &Manual{
		now:    time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		timers: make(map[clock.Handle]*manualTimer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now returns the simulated time.
func (m *Manual) Now() time.Time { return m.now }

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) clock.Handle {
	m.next++
	m.seq++
	m.timers[m.next] = &manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn}
	return m.next
}

// Cancel removes a pending timer.
func (m *Manual) Cancel(h clock.Handle) bool {
	if _, ok := m.timers[h]; !ok {
		return false
	}
	delete(m.timers, h)
	return true
}

// Spawn queues work until RunPending.
func (m *Manual) Spawn(work func() func()) {
	m.work = append(m.work, work)
}

// Advance moves time forward by d, firing due timers in order of due time
// and then scheduling order. Timers scheduled by a callback fire in the same
// call if they fall due within d.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		h, t, ok := m.earliest()
		if !ok || t.due.After(target) {
			break
		}
		delete(m.timers, h)
		if t.due.After(m.now) {
			m.now = t.due
		}
		t.fn()
	}
	m.now = target
}

// RunPending runs queued spawned work and its continuations, including work
// spawned while doing so.
func (m *Manual) RunPending() int {
	n := 0
	for len(m.work) > 0 {
		w := m.work[0]
		m.work = m.work[1:]
		if cont := w(); cont != nil {
			cont()
		}
		n++
	}
	return n
}

// Pending is the number of timers not yet fired or cancelled.
func (m *Manual) Pending() int { return len(m.timers) }

// Spawned is the number of queued work items.
func (m *Manual) Spawned() int { return len(m.work) }

func (m *Manual) earliest() (clock.Handle, *manualTimer, bool) {
	if len(m.timers) == 0 {
		return 0, nil, false
	}
	hs := make([]clock.Handle, 0, len(m.timers))
	for h := range m.timers {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool {
		a, b := m.timers[hs[i]], m.timers[hs[j]]
		if !a.due.Equal(b.due) {
			return a.due.Before(b.due)
		}
		return a.seq < b.seq
	})
	return hs[0], m.timers[hs[0]], true
}
