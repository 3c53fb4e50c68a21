// Package demo plays a scripted round: it drags a few cards from the drop
// zone into their correct timeline positions, emitting the pointer frames a
// front end animates, and then leaves demo mode.
//
// A Sequencer runs entirely on the logical thread of its clock.Scheduler and
// every delay it schedules goes through one clock.Registry, so cancelling the
// demo leaves nothing pending.
package demo

import (
	"context"
	"time"

	"github.com/okian/wikiline/internal/domain/clock"
	"github.com/okian/wikiline/internal/domain/geometry"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/pkg/logger"
	"github.com/okian/wikiline/pkg/metrics"
)

// StartMessage is the toast shown when the demo starts.
const StartMessage = "Demo: we will drag a few cards into the right spots."

// Script timings at speed 1.
const (
	initialDelay   = 600 * time.Millisecond
	approachToGrab = 400 * time.Millisecond
	grabToDrag     = 300 * time.Millisecond
	dragToRelease  = 900 * time.Millisecond
	stepPause      = 900 * time.Millisecond

	defaultMaxSteps = 3
)

// Game is the part of round.Game the demo drives.
type Game interface {
	OnChange(fn func(round.Change)) func()
	DemoMode() bool
	RoundID() string
	Current() *model.EventRecord
	Slots() []model.EventRecord
	DropAt(ctx context.Context, rec *model.EventRecord, position int) (round.Placement, bool)
	EndDemo(ctx context.Context)
	Notify(message string, kind round.Kind)
}

// Stage is one beat of a demo step.
type Stage string

// Stages, in order.
const (
	StageApproach Stage = "approach"
	StageGrab     Stage = "grab"
	StageDrag     Stage = "drag"
	StageRelease  Stage = "release"
	StageDone     Stage = "done"
)

// Frame tells a front end where the demo pointer is.
type Frame struct {
	RoundID string `json:"roundId"`
	Step    int    `json:"step"`
	Stage   Stage  `json:"stage"`
	// Point is the pointer position in screen coordinates.
	Point geometry.Point `json:"point"`
	// Index is the insertion index the card is heading for.
	Index int `json:"index"`
	// TopPx is the insertion marker offset inside the list.
	TopPx     float64           `json:"topPx"`
	ScrollTop float64           `json:"scrollTop"`
	Scrolled  bool              `json:"scrolled"`
	Record    model.EventRecord `json:"record"`
}

// Sink receives frames.
type Sink interface {
	Frame(f Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f Frame)

// Frame calls f.
func (f SinkFunc) Frame(fr Frame) { f(fr) }

type nopSink struct{}

func (nopSink) Frame(Frame) {}

// Sequencer reacts to demo rounds started on a Game and plays them.
type Sequencer struct {
	game    Game
	timers  *clock.Registry
	surface Surface
	sink    Sink
	logger  logger.Logger

	maxSteps int
	speed    float64

	ctx         context.Context
	unsubscribe func()

	roundID   string
	step      int
	scrollTop float64
	running   bool
}

// New creates a Sequencer. Call Attach to start following the game.
func New(game Game, sched clock.Scheduler, opts ...Option) *Sequencer {
	s := &Sequencer{
		game:     game,
		timers:   clock.NewRegistry(sched),
		surface:  NewStackSurface(geometry.DefaultStackLayout()),
		sink:     nopSink{},
		logger:   logger.Get().Named("demo"),
		maxSteps: defaultMaxSteps,
		speed:    1,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach subscribes to game changes. ctx is used for every call the demo
// makes into the game.
func (s *Sequencer) Attach(ctx context.Context) {
	if s.unsubscribe != nil {
		return
	}
	s.ctx = context.WithoutCancel(ctx)
	s.unsubscribe = s.game.OnChange(s.handle)
}

// Detach stops following the game and cancels a running script.
func (s *Sequencer) Detach() {
	s.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Running reports whether a script is in progress.
func (s *Sequencer) Running() bool { return s.running }

// Stop cancels every pending beat of the script.
func (s *Sequencer) Stop() {
	n := s.timers.CancelAll()
	if s.running {
		s.logger.Debug(s.ctx, "demo script stopped",
			logger.String("round_id", s.roundID),
			logger.Int("cancelled", n),
		)
	}
	s.running = false
}

func (s *Sequencer) handle(c round.Change) {
	switch c.Topic {
	case round.TopicRound:
		if !s.game.DemoMode() {
			s.Stop()
			return
		}
		if s.game.Current() != nil && s.game.RoundID() != s.roundID {
			s.start()
		}
	case round.TopicDemo:
		if !s.game.DemoMode() {
			s.Stop()
		}
	}
}

func (s *Sequencer) start() {
	s.Stop()
	s.roundID = s.game.RoundID()
	s.step = 0
	s.scrollTop = 0
	s.running = true

	s.logger.Info(s.ctx, "demo script started",
		logger.String("round_id", s.roundID),
		logger.Int("max_steps", s.maxSteps),
	)
	s.game.Notify(StartMessage, round.KindSuccess)

	if s.maxSteps == 0 {
		s.after(initialDelay, s.finish)
		return
	}
	s.after(initialDelay, s.runStep)
}

// live reports whether the round the script was started for is still the
// demo round on screen.
func (s *Sequencer) live() bool {
	return s.running && s.game.DemoMode() && s.game.RoundID() == s.roundID
}

func (s *Sequencer) runStep() {
	if !s.live() {
		s.Stop()
		return
	}
	cur := s.game.Current()
	if cur == nil {
		s.finish()
		return
	}
	rec := *cur
	slots := s.game.Slots()
	index := round.CorrectIndex(slots, rec.Year)

	m := s.surface.Measure(len(slots), s.scrollTop)
	next, scrolled := geometry.EnsureInsertVisible(m.View, m.Content, index)
	if scrolled {
		s.scrollTop = next
		m = s.surface.Measure(len(slots), next)
	}
	target := geometry.DemoTargetPoint(m.List, m.Cards, index, m.Dragged)
	grip := geometry.Point{
		X: m.Dragged.Left + m.Dragged.Width()/2,
		Y: m.Dragged.CenterY(),
	}

	frame := Frame{
		RoundID:   s.roundID,
		Step:      s.step + 1,
		Index:     index,
		TopPx:     geometry.InsertTopPx(m.List, m.Cards, index, m.CardHeight),
		ScrollTop: s.scrollTop,
		Record:    rec,
	}

	approach := frame
	approach.Stage = StageApproach
	approach.Point = grip
	approach.Scrolled = scrolled
	s.sink.Frame(approach)

	s.after(approachToGrab, func() {
		grab := frame
		grab.Stage = StageGrab
		grab.Point = grip
		s.sink.Frame(grab)

		s.after(grabToDrag, func() {
			drag := frame
			drag.Stage = StageDrag
			drag.Point = target
			s.sink.Frame(drag)

			s.after(dragToRelease, func() {
				s.release(frame, target)
			})
		})
	})
}

func (s *Sequencer) release(frame Frame, target geometry.Point) {
	if !s.live() {
		s.Stop()
		return
	}
	cur := s.game.Current()
	if cur == nil {
		s.after(stepPause, s.finish)
		return
	}
	if cur.Key() != frame.Record.Key() {
		// Someone else placed the card mid-drag; plan again for the new one.
		s.logger.Debug(s.ctx, "demo card changed before release", logger.String("round_id", s.roundID))
		s.after(stepPause, s.runStep)
		return
	}

	p, ok := s.game.DropAt(s.ctx, cur, frame.Index)
	if !ok {
		s.Stop()
		return
	}
	metrics.RecordDemoStep()
	s.step++

	rel := frame
	rel.Stage = StageRelease
	rel.Point = target
	rel.Index = p.Index
	s.sink.Frame(rel)

	if s.step >= s.maxSteps || s.game.Current() == nil {
		s.after(stepPause, s.finish)
		return
	}
	s.after(stepPause, s.runStep)
}

func (s *Sequencer) finish() {
	if !s.live() {
		s.Stop()
		return
	}
	s.sink.Frame(Frame{RoundID: s.roundID, Step: s.step, Stage: StageDone, ScrollTop: s.scrollTop})
	s.logger.Info(s.ctx, "demo script finished",
		logger.String("round_id", s.roundID),
		logger.Int("steps", s.step),
	)
	s.Stop()
	s.game.EndDemo(s.ctx)
}

func (s *Sequencer) after(d time.Duration, fn func()) {
	s.timers.After(time.Duration(float64(d)*s.speed), fn)
}
