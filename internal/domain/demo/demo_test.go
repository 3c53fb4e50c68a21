package demo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wikiline/internal/adapters/scheduler"
	"github.com/okian/wikiline/internal/domain/demo"
	"github.com/okian/wikiline/internal/domain/geometry"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type staticProvider struct{ events []model.EventRecord }

func (p staticProvider) FetchEvents(context.Context, int) ([]model.EventRecord, error) {
	return append([]model.EventRecord(nil), p.events...), nil
}

type memStore struct{ saves int }

func (s *memStore) Load(context.Context) ([]model.ScoreRecord, error) { return nil, nil }
func (s *memStore) Save(context.Context, []model.ScoreRecord) error {
	s.saves++
	return nil
}
func (s *memStore) Clear(context.Context) error { return nil }

// descending deals the newest event first so every demo drop lands at index 0.
func descending(events []model.EventRecord) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}

func events(n int) []model.EventRecord {
	out := make([]model.EventRecord, n)
	for i := range out {
		out[i] = model.EventRecord{Year: 1900 + 10*i, Title: fmt.Sprintf("Event %d", i)}
	}
	return out
}

type fixture struct {
	sched  *scheduler.Manual
	game   *round.Game
	seq    *demo.Sequencer
	store  *memStore
	frames []demo.Frame
	toasts []string
}

func newFixture(n int, opts ...demo.Option) *fixture {
	return newDealtFixture(n, descending, opts...)
}

func newDealtFixture(n int, deal func([]model.EventRecord), opts ...demo.Option) *fixture {
	f := &fixture{sched: scheduler.NewManual(), store: &memStore{}}
	f.game = round.New(staticProvider{events(n)}, f.store, f.sched,
		round.WithShuffle(deal),
		round.WithNotifier(round.NotifierFunc(func(msg string, _ round.Kind) {
			f.toasts = append(f.toasts, msg)
		})),
	)
	opts = append([]demo.Option{demo.WithSink(demo.SinkFunc(func(fr demo.Frame) {
		f.frames = append(f.frames, fr)
	}))}, opts...)
	f.seq = demo.New(f.game, f.sched, opts...)
	f.seq.Attach(context.Background())
	return f
}

func (f *fixture) startDemo() {
	f.game.StartDemo(context.Background())
	f.sched.RunPending()
}

func (f *fixture) stages() []demo.Stage {
	out := make([]demo.Stage, len(f.frames))
	for i, fr := range f.frames {
		out[i] = fr.Stage
	}
	return out
}

func TestSequencerScript(t *testing.T) {
	Convey("Given a demo round over ten events", t, func() {
		f := newFixture(10)
		f.startDemo()

		Convey("Then the start toast is shown and nothing moves before the initial delay", func() {
			So(f.seq.Running(), ShouldBeTrue)
			So(f.toasts, ShouldContain, demo.StartMessage)
			f.sched.Advance(599 * time.Millisecond)
			So(f.frames, ShouldBeEmpty)
			f.sched.Advance(time.Millisecond)
			So(f.stages(), ShouldResemble, []demo.Stage{demo.StageApproach})
		})

		Convey("When the first step plays out", func() {
			f.sched.Advance(2200 * time.Millisecond)

			Convey("Then the card is grabbed, dragged and dropped in place", func() {
				So(f.stages(), ShouldResemble, []demo.Stage{
					demo.StageApproach, demo.StageGrab, demo.StageDrag, demo.StageRelease,
				})
				So(f.game.Attempts(), ShouldEqual, 1)
				So(f.game.Correct(), ShouldEqual, 1)
				So(f.frames[3].Index, ShouldEqual, 0)
				So(f.frames[0].Record.Year, ShouldEqual, 1980)
			})

			Convey("Then the drag ends on the target point", func() {
				So(f.frames[2].Point, ShouldResemble, f.frames[3].Point)
				So(f.frames[1].Point, ShouldResemble, f.frames[0].Point)
			})
		})

		Convey("When three steps have played", func() {
			f.sched.Advance(7200 * time.Millisecond)

			Convey("Then three cards are placed and the round is still a demo", func() {
				So(f.game.Correct(), ShouldEqual, 3)
				So(f.game.DemoMode(), ShouldBeTrue)
				So(f.game.Slots(), ShouldHaveLength, 4)
			})

			Convey("Then after the pause the demo ends and nothing is left scheduled", func() {
				f.sched.Advance(900 * time.Millisecond)
				So(f.frames[len(f.frames)-1].Stage, ShouldEqual, demo.StageDone)
				So(f.game.DemoMode(), ShouldBeFalse)
				So(f.game.Phase(), ShouldEqual, round.PhaseIdle)
				So(f.seq.Running(), ShouldBeFalse)
				So(f.sched.Pending(), ShouldEqual, 0)
				So(f.game.Scoreboard(), ShouldBeEmpty)
				So(f.store.saves, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a short deck and many steps", t, func() {
		f := newFixture(5, demo.WithMaxSteps(10))
		f.startDemo()
		f.sched.Advance(time.Minute)

		Convey("Then the script stops when the deck runs out", func() {
			releases := 0
			for _, fr := range f.frames {
				if fr.Stage == demo.StageRelease {
					releases++
				}
			}
			So(releases, ShouldEqual, 4)
			So(f.game.DemoMode(), ShouldBeFalse)
			So(f.sched.Pending(), ShouldEqual, 0)
		})
	})

	Convey("Given a doubled speed", t, func() {
		f := newFixture(10, demo.WithSpeed(0.5))
		f.startDemo()
		f.sched.Advance(1100 * time.Millisecond)

		Convey("Then the first step finishes in half the time", func() {
			So(f.game.Attempts(), ShouldEqual, 1)
		})
	})

	Convey("Given zero steps", t, func() {
		f := newFixture(10, demo.WithMaxSteps(0))
		f.startDemo()
		f.sched.Advance(600 * time.Millisecond)

		Convey("Then the demo ends without placing", func() {
			So(f.game.Attempts(), ShouldEqual, 0)
			So(f.game.DemoMode(), ShouldBeFalse)
		})
	})
}

func TestSequencerCancellation(t *testing.T) {
	Convey("Given a demo in the middle of a drag", t, func() {
		ctx := context.Background()
		f := newFixture(10)
		f.startDemo()
		f.sched.Advance(1500 * time.Millisecond)
		seen := len(f.frames)

		Convey("When the player ends the demo", func() {
			f.game.EndDemo(ctx)
			f.sched.Advance(time.Minute)

			Convey("Then nothing is pending and no card is dropped", func() {
				So(f.sched.Pending(), ShouldEqual, 0)
				So(f.seq.Running(), ShouldBeFalse)
				So(len(f.frames), ShouldEqual, seen)
				So(f.game.Attempts(), ShouldEqual, 0)
			})
		})

		Convey("When a regular game starts", func() {
			f.game.StartGame(ctx)
			roundID := f.game.RoundID()
			f.sched.Advance(time.Minute)

			Convey("Then the script never touches the new round", func() {
				So(f.seq.Running(), ShouldBeFalse)
				So(f.game.RoundID(), ShouldEqual, roundID)
				So(f.game.Attempts(), ShouldEqual, 0)
				So(f.game.Slots(), ShouldHaveLength, 1)
			})
		})

		Convey("When a new demo round replaces it", func() {
			f.game.StartDemo(ctx)
			first := f.frames[0].RoundID
			f.sched.Advance(2200 * time.Millisecond)

			Convey("Then the script restarts for the new round", func() {
				last := f.frames[len(f.frames)-1]
				So(last.RoundID, ShouldNotEqual, first)
				So(last.Stage, ShouldEqual, demo.StageRelease)
				So(f.game.Attempts(), ShouldEqual, 1)
			})
		})

		Convey("When the player drops the card being dragged", func() {
			cur := f.game.Current()
			_, ok := f.game.DropAt(ctx, cur, round.CorrectIndex(f.game.Slots(), cur.Year))
			So(ok, ShouldBeTrue)
			f.sched.Advance(time.Minute)

			Convey("Then the script plans again and still ends the demo", func() {
				releases := 0
				for _, fr := range f.frames {
					if fr.Stage == demo.StageRelease {
						releases++
					}
				}
				So(releases, ShouldEqual, 3)
				So(f.frames[len(f.frames)-1].Stage, ShouldEqual, demo.StageDone)
				So(f.game.DemoMode(), ShouldBeFalse)
				So(f.game.Phase(), ShouldEqual, round.PhaseIdle)
				So(f.seq.Running(), ShouldBeFalse)
				So(f.sched.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When the player places every remaining card", func() {
			for cur := f.game.Current(); cur != nil; cur = f.game.Current() {
				f.game.DropAt(ctx, cur, round.CorrectIndex(f.game.Slots(), cur.Year))
			}
			So(f.game.Phase(), ShouldEqual, round.PhaseCompleted)
			f.sched.Advance(time.Minute)

			Convey("Then the demo returns to idle without saving a score", func() {
				So(f.game.DemoMode(), ShouldBeFalse)
				So(f.game.Phase(), ShouldEqual, round.PhaseIdle)
				So(f.game.Scoreboard(), ShouldBeEmpty)
				So(f.store.saves, ShouldEqual, 0)
				So(f.sched.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When the sequencer is detached", func() {
			f.seq.Detach()
			f.sched.Advance(time.Minute)

			Convey("Then the demo round is left untouched", func() {
				So(f.game.DemoMode(), ShouldBeTrue)
				So(f.game.Attempts(), ShouldEqual, 0)
			})
		})
	})
}

func TestSequencerScrolling(t *testing.T) {
	Convey("Given a short viewport", t, func() {
		layout := geometry.DefaultStackLayout()
		layout.ViewHeight = 100
		// Ascending deal so every card is appended below the last one.
		ascending := func([]model.EventRecord) {}
		f := newDealtFixture(10, ascending, demo.WithSurface(demo.NewStackSurface(layout)))
		f.startDemo()
		f.sched.Advance(5600 * time.Millisecond)

		Convey("Then the second step scrolls the insert point into view", func() {
			var approaches []demo.Frame
			for _, fr := range f.frames {
				if fr.Stage == demo.StageApproach {
					approaches = append(approaches, fr)
				}
			}
			So(len(approaches), ShouldBeGreaterThanOrEqualTo, 2)
			So(approaches[0].Scrolled, ShouldBeFalse)
			So(approaches[1].Scrolled, ShouldBeTrue)
			So(approaches[1].ScrollTop, ShouldEqual, 80)
			So(approaches[1].Index, ShouldEqual, 2)
			So(f.game.Correct(), ShouldEqual, 2)
		})
	})

	Convey("StackSurface places the waiting card below the list", t, func() {
		layout := geometry.DefaultStackLayout()
		m := demo.NewStackSurface(layout).Measure(2, 0)
		So(m.Cards, ShouldHaveLength, 2)
		So(m.Content, ShouldHaveLength, 2)
		So(m.Cards[0].Top, ShouldEqual, layout.Top+layout.Padding)
		So(m.Dragged.Top, ShouldEqual, layout.Top+layout.ViewHeight+40)
		So(m.CardHeight, ShouldEqual, layout.CardHeight)
	})
}
