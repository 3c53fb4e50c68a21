package round_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wikiline/internal/adapters/scheduler"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/internal/domain/scoring"
)

type harness struct {
	game     *round.Game
	sched    *scheduler.Manual
	provider *fakeProvider
	store    *fakeStore
	toasts   *toasts
	changes  []round.Change
}

func newHarness(provider *fakeProvider, store *fakeStore, opts ...round.Option) *harness {
	h := &harness{
		sched:    scheduler.NewManual(),
		provider: provider,
		store:    store,
		toasts:   &toasts{},
	}
	opts = append([]round.Option{
		round.WithShuffle(identity),
		round.WithNotifier(h.toasts),
	}, opts...)
	h.game = round.New(provider, store, h.sched, opts...)
	h.game.OnChange(func(c round.Change) { h.changes = append(h.changes, c) })
	return h
}

func (h *harness) count(topic round.Topic) int {
	n := 0
	for _, c := range h.changes {
		if c.Topic == topic {
			n++
		}
	}
	return n
}

func TestGameLifecycle(t *testing.T) {
	Convey("Given a game over five events", t, func() {
		ctx := context.Background()
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1900, 1910, 1920, 1930, 1940)}}, &fakeStore{})
		g := h.game

		Convey("When it is initialised", func() {
			g.Init(ctx)

			Convey("Then it is loading until the fetch completes", func() {
				So(g.Phase(), ShouldEqual, round.PhaseLoading)
				So(h.sched.Spawned(), ShouldEqual, 1)

				h.sched.RunPending()
				So(g.Phase(), ShouldEqual, round.PhaseIdle)
				So(g.Loading(), ShouldBeFalse)
				So(g.Started(), ShouldBeFalse)
				So(g.Current(), ShouldBeNil)
			})

			Convey("Then a start requested while loading is deferred", func() {
				g.StartGame(ctx)
				So(g.Phase(), ShouldEqual, round.PhaseLoading)
				So(h.provider.calls, ShouldEqual, 0)

				h.sched.RunPending()
				So(h.provider.calls, ShouldEqual, 1)
				So(g.Phase(), ShouldEqual, round.PhaseActive)
				So(g.Started(), ShouldBeTrue)
			})
		})

		Convey("When a game is started", func() {
			g.Init(ctx)
			h.sched.RunPending()
			g.StartGame(ctx)

			Convey("Then the first card is placed and the second is current", func() {
				So(yearsOf(g.Slots()), ShouldResemble, []int{1900})
				So(g.Current().Year, ShouldEqual, 1910)
				So(g.DeckLen(), ShouldEqual, 3)
				So(g.RoundID(), ShouldNotBeEmpty)
				So(g.TimerRunning(), ShouldBeTrue)
				So(h.provider.calls, ShouldEqual, 1)
			})

			Convey("Then starting again deals a fresh round from the cached events", func() {
				first := g.RoundID()
				g.StartGame(ctx)
				So(g.RoundID(), ShouldNotEqual, first)
				So(h.provider.calls, ShouldEqual, 1)
				So(h.sched.Pending(), ShouldEqual, 1)
			})
		})

		Convey("When reset twice before the fetches complete", func() {
			h.provider.batches = [][]model.EventRecord{
				years(1900, 1910, 1920, 1930, 1940),
				years(2000, 2010, 2020, 2030, 2040),
				years(1500, 1510, 1520, 1530, 1540),
			}
			g.Init(ctx)
			h.sched.RunPending()
			rounds := h.count(round.TopicRound)

			g.Reset(ctx)
			g.Reset(ctx)
			h.sched.RunPending()

			Convey("Then only the latest fetch is applied", func() {
				So(h.provider.calls, ShouldEqual, 3)
				So(h.count(round.TopicRound)-rounds, ShouldEqual, 1)
				So(yearsOf(g.Slots()), ShouldResemble, []int{1500})
				So(g.Current().Year, ShouldEqual, 1510)
			})
		})
	})
}

func TestGameLoadFailure(t *testing.T) {
	Convey("Given a provider that fails", t, func() {
		ctx := context.Background()
		provider := &fakeProvider{err: model.NewNotEnough("https://example.test/feed")}
		h := newHarness(provider, &fakeStore{})
		g := h.game

		g.StartGame(ctx)
		h.sched.RunPending()

		Convey("Then the error is exposed and no round exists", func() {
			So(g.LoadError(), ShouldNotBeNil)
			So(g.LoadError().Message, ShouldEqual, model.MsgNotEnough)
			So(g.Phase(), ShouldEqual, round.PhaseIdle)
			So(g.Slots(), ShouldBeEmpty)
			So(g.Current(), ShouldBeNil)
			So(g.DeckLen(), ShouldEqual, 0)
			So(g.Started(), ShouldBeFalse)
			So(h.sched.Pending(), ShouldEqual, 0)
		})

		Convey("Then starting again retries the fetch", func() {
			provider.err = nil
			provider.batches = [][]model.EventRecord{years(1, 2, 3, 4, 5)}
			g.StartGame(ctx)
			So(g.LoadError(), ShouldBeNil)
			h.sched.RunPending()

			So(provider.calls, ShouldEqual, 2)
			So(g.Phase(), ShouldEqual, round.PhaseActive)
		})

		Convey("Then a transport error keeps its own message", func() {
			provider.err = errFeedDown
			g.StartGame(ctx)
			h.sched.RunPending()
			So(g.LoadError().Message, ShouldEqual, "feed down")
		})
	})

	Convey("Given an active round when a reset fetch fails", t, func() {
		ctx := context.Background()
		provider := &fakeProvider{batches: [][]model.EventRecord{years(1900, 1910, 1920, 1930, 1940)}}
		h := newHarness(provider, &fakeStore{})
		g := h.game
		g.StartGame(ctx)
		h.sched.RunPending()
		So(g.Phase(), ShouldEqual, round.PhaseActive)

		provider.err = errFeedDown
		g.Reset(ctx)
		h.sched.RunPending()

		Convey("Then the round is cleared together", func() {
			So(g.Current(), ShouldBeNil)
			So(g.Slots(), ShouldBeEmpty)
			So(g.DeckLen(), ShouldEqual, 0)
			So(g.TimerRunning(), ShouldBeFalse)
		})
	})
}

func TestGameTimer(t *testing.T) {
	Convey("Given a started round", t, func() {
		ctx := context.Background()
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1900, 1910, 1920, 1930, 1940)}}, &fakeStore{})
		g := h.game
		g.StartGame(ctx)
		h.sched.RunPending()

		Convey("When time passes", func() {
			h.sched.Advance(time.Second)
			label := g.ElapsedLabel()
			h.sched.Advance(61 * time.Second)

			Convey("Then the label follows the elapsed time", func() {
				So(label, ShouldEqual, "0:01")
				So(g.ElapsedLabel(), ShouldEqual, "1:02")
				So(g.Elapsed(), ShouldEqual, 62*time.Second)
				So(h.sched.Pending(), ShouldEqual, 1)
				So(h.count(round.TopicTimer), ShouldBeGreaterThan, 200)
			})
		})

		Convey("When the round completes after three seconds", func() {
			h.sched.Advance(3 * time.Second)
			for range 4 {
				g.DropAt(ctx, g.Current(), len(g.Slots()))
			}

			Convey("Then the timer stops and the exact elapsed time is recorded", func() {
				So(g.Phase(), ShouldEqual, round.PhaseCompleted)
				So(g.TimerRunning(), ShouldBeFalse)
				So(h.sched.Pending(), ShouldEqual, 0)
				board := g.Scoreboard()
				So(board, ShouldHaveLength, 1)
				So(board[0].ElapsedMs, ShouldEqual, 3000)
				So(board[0].Correct, ShouldEqual, 4)
				So(board[0].Attempts, ShouldEqual, 4)
				So(board[0].BestStreak, ShouldEqual, 4)
			})
		})
	})

	Convey("FormatElapsed renders minutes and padded seconds", t, func() {
		So(round.FormatElapsed(0), ShouldEqual, "0:00")
		So(round.FormatElapsed(9*time.Second+900*time.Millisecond), ShouldEqual, "0:09")
		So(round.FormatElapsed(10*time.Minute+5*time.Second), ShouldEqual, "10:05")
		So(round.FormatElapsed(-time.Second), ShouldEqual, "0:00")
	})
}

func TestGameScoreboard(t *testing.T) {
	Convey("Given a persisted board and rules worth 300 per correct card", t, func() {
		ctx := context.Background()
		store := &fakeStore{records: []model.ScoreRecord{
			{Score: 1300, ElapsedMs: 50000},
			{Score: 1100, ElapsedMs: 40000},
		}}
		rules := scoring.NewRules(
			scoring.WithCorrectBase(300),
			scoring.WithStreakBonus(0),
			scoring.WithBonusWindow(time.Nanosecond),
		)
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1900, 1910, 1920, 1930, 1940)}}, store, round.WithRules(rules))
		g := h.game
		g.Init(ctx)
		h.sched.RunPending()

		Convey("When a round finishes with 1200 points", func() {
			g.StartGame(ctx)
			for i := 1; i <= 4; i++ {
				g.DropAt(ctx, g.Current(), i)
			}

			Convey("Then it is ranked between the stored scores and saved", func() {
				So(g.Score(), ShouldEqual, 1200)
				scores := []int{}
				for _, r := range g.Scoreboard() {
					scores = append(scores, r.Score)
				}
				So(scores, ShouldResemble, []int{1300, 1200, 1100})
				So(store.saves, ShouldEqual, 1)
				So(store.records, ShouldHaveLength, 3)
				So(h.count(round.TopicScoreboard), ShouldEqual, 2)
			})
		})

		Convey("When the board is cleared", func() {
			g.ClearScoreboard(ctx)

			Convey("Then it is empty in memory and in the store", func() {
				So(g.Scoreboard(), ShouldBeEmpty)
				So(store.clears, ShouldEqual, 1)
				So(store.records, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a store that fails", t, func() {
		ctx := context.Background()
		store := &fakeStore{loadErr: errFeedDown, saveErr: errFeedDown}
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1, 2, 3, 4, 5)}}, store)
		g := h.game
		g.Init(ctx)
		h.sched.RunPending()

		Convey("Then loading yields an empty board", func() {
			So(g.Scoreboard(), ShouldBeEmpty)
		})

		Convey("Then a finished round is still ranked in memory", func() {
			g.StartGame(ctx)
			for g.Current() != nil {
				g.DropAt(ctx, g.Current(), len(g.Slots()))
			}
			So(store.saves, ShouldEqual, 1)
			So(g.Scoreboard(), ShouldHaveLength, 1)
		})
	})

	Convey("Given a board longer than the limit in the store", t, func() {
		ctx := context.Background()
		records := make([]model.ScoreRecord, 15)
		for i := range records {
			records[i] = model.ScoreRecord{Score: 100 - i}
		}
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1, 2, 3, 4, 5)}}, &fakeStore{records: records})
		h.game.Init(ctx)

		Convey("Then only the first ten are kept", func() {
			So(h.game.Scoreboard(), ShouldHaveLength, scoring.BoardLimit)
			So(h.game.Scoreboard()[0].Score, ShouldEqual, 100)
		})
	})
}

func TestGameDemo(t *testing.T) {
	Convey("Given a demo round", t, func() {
		ctx := context.Background()
		store := &fakeStore{}
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1900, 1910, 1920, 1930, 1940)}}, store)
		g := h.game
		g.StartDemo(ctx)
		h.sched.RunPending()

		Convey("Then the round is active in demo mode", func() {
			So(g.DemoMode(), ShouldBeTrue)
			So(g.Phase(), ShouldEqual, round.PhaseActive)
			So(h.count(round.TopicDemo), ShouldEqual, 1)
		})

		Convey("When the demo round completes", func() {
			for g.Current() != nil {
				g.DropAt(ctx, g.Current(), 0)
			}

			Convey("Then the board and store are untouched", func() {
				So(g.Phase(), ShouldEqual, round.PhaseCompleted)
				So(g.Scoreboard(), ShouldBeEmpty)
				So(store.saves, ShouldEqual, 0)
			})
		})

		Convey("When the demo is ended", func() {
			g.EndDemo(ctx)

			Convey("Then the game is idle with no timers left", func() {
				So(g.DemoMode(), ShouldBeFalse)
				So(g.Phase(), ShouldEqual, round.PhaseIdle)
				So(g.Current(), ShouldBeNil)
				So(g.Slots(), ShouldBeEmpty)
				So(h.sched.Pending(), ShouldEqual, 0)
				So(h.count(round.TopicDemo), ShouldEqual, 2)
			})
		})

		Convey("When a regular game is started", func() {
			g.StartGame(ctx)

			Convey("Then demo mode is left", func() {
				So(g.DemoMode(), ShouldBeFalse)
				So(g.Phase(), ShouldEqual, round.PhaseActive)
			})

			Convey("Then ending the demo keeps the player's progress", func() {
				g.DropAt(ctx, g.Current(), 0)
				roundID := g.RoundID()
				slots := len(g.Slots())
				g.EndDemo(ctx)
				So(g.Phase(), ShouldEqual, round.PhaseActive)
				So(g.RoundID(), ShouldEqual, roundID)
				So(g.Slots(), ShouldHaveLength, slots)
				So(g.Attempts(), ShouldEqual, 1)
				So(g.TimerRunning(), ShouldBeTrue)
			})
		})
	})
}

func TestGameListeners(t *testing.T) {
	Convey("Given a listener that unsubscribes", t, func() {
		ctx := context.Background()
		h := newHarness(&fakeProvider{batches: [][]model.EventRecord{years(1, 2, 3, 4, 5)}}, &fakeStore{})
		calls := 0
		var stop func()
		stop = h.game.OnChange(func(round.Change) {
			calls++
			stop()
		})

		h.game.Init(ctx)

		Convey("Then it is called once", func() {
			So(calls, ShouldEqual, 1)
		})
	})
}
