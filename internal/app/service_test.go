package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wikiline/internal/adapters/repository"
	service "github.com/okian/wikiline/internal/app"
	"github.com/okian/wikiline/internal/config"
	"github.com/okian/wikiline/internal/domain/geometry"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type stubProvider struct{}

func (stubProvider) FetchEvents(context.Context, int) ([]model.EventRecord, error) {
	out := make([]model.EventRecord, 5)
	for i := range out {
		out[i] = model.EventRecord{Year: 1900 + 10*i, Title: fmt.Sprintf("Event %d", i)}
	}
	return out, nil
}

func newService(opts ...service.Option) *service.Service {
	cfg := config.New()
	cfg.DemoSpeed = 0.01
	base := []service.Option{
		service.WithConfig(cfg),
		service.WithProvider(stubProvider{}),
		service.WithStore(repository.NewMemoryStore()),
		service.WithGameOptions(round.WithShuffle(func([]model.EventRecord) {})),
	}
	return service.New(append(base, opts...)...)
}

// waitFor polls the service until cond holds or the deadline passes.
func waitFor(svc *service.Service, cond func(round.Snapshot) bool) round.Snapshot {
	ctx := context.Background()
	deadline := time.Now().Add(3 * time.Second)
	for {
		snap, err := svc.State(ctx)
		if err == nil && cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newService()

		Convey("Then operations fail before it is started", func() {
			_, err := svc.State(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats(ctx)["started"], ShouldEqual, false)
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then events are loaded without starting a round", func() {
				snap := waitFor(svc, func(s round.Snapshot) bool { return !s.Loading })
				So(snap.Phase, ShouldEqual, round.PhaseIdle)
				So(snap.Started, ShouldBeFalse)
				So(svc.GetStats(ctx)["started"], ShouldEqual, true)
			})

			Convey("Then starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopped after starting", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it reports stopped and can be stopped again", func() {
				So(svc.GetStats(ctx)["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Play(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		waitFor(svc, func(s round.Snapshot) bool { return !s.Loading })

		snap, err := svc.StartGame(ctx)
		So(err, ShouldBeNil)
		So(snap.Phase, ShouldEqual, round.PhaseActive)

		Convey("When every card is placed at the end", func() {
			for range 4 {
				_, err := svc.Drop(ctx, 99)
				So(err, ShouldBeNil)
			}

			Convey("Then the round completes and is on the board", func() {
				snap, err := svc.State(ctx)
				So(err, ShouldBeNil)
				So(snap.Phase, ShouldEqual, round.PhaseCompleted)
				So(snap.Correct, ShouldEqual, 4)
				board, err := svc.Scores(ctx)
				So(err, ShouldBeNil)
				So(board, ShouldHaveLength, 1)
			})

			Convey("Then dropping again reports that no card is left", func() {
				_, err := svc.Drop(ctx, 0)
				So(errors.Is(err, service.ErrNoCard), ShouldBeTrue)
			})

			Convey("Then the board can be cleared", func() {
				So(svc.ClearScores(ctx), ShouldBeNil)
				board, _ := svc.Scores(ctx)
				So(board, ShouldBeEmpty)
			})
		})

		Convey("When a card is dropped at a pointer position", func() {
			layout := geometry.DefaultStackLayout()
			// Below the only card: insertion index 1.
			pt := geometry.Point{X: layout.Left + 10, Y: layout.Top + layout.Padding + layout.CardHeight + 5}
			p, hover, err := svc.DropAtPoint(ctx, pt, 0)

			Convey("Then the hover index is used", func() {
				So(err, ShouldBeNil)
				So(hover.Index, ShouldEqual, 1)
				So(p.Correct, ShouldBeTrue)
			})
		})

		Convey("When the pointer is outside the timeline", func() {
			_, _, err := svc.DropAtPoint(ctx, geometry.Point{X: -100, Y: 0}, 0)

			Convey("Then nothing is placed", func() {
				So(errors.Is(err, service.ErrNoCard), ShouldBeTrue)
				snap, _ := svc.State(ctx)
				So(snap.Attempts, ShouldEqual, 0)
			})
		})

		Convey("When the layout is replaced", func() {
			err := svc.SetLayout(ctx, geometry.StackLayout{Width: 0, CardHeight: 10})
			So(errors.Is(err, service.ErrInvalidLayout), ShouldBeTrue)

			l := geometry.DefaultStackLayout()
			l.Left = 500
			So(svc.SetLayout(ctx, l), ShouldBeNil)

			Convey("Then hover uses the new layout", func() {
				got, err := svc.Layout(ctx)
				So(err, ShouldBeNil)
				So(got.Left, ShouldEqual, 500)
				_, over, err := svc.HoverTimeline(ctx, geometry.Point{X: 100, Y: l.Top + 20}, 0)
				So(err, ShouldBeNil)
				So(over, ShouldBeFalse)
			})
		})
	})
}

func TestService_Stream(t *testing.T) {
	Convey("Given a subscriber on a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newService()
		sub := svc.Broadcaster().Subscribe()
		defer svc.Broadcaster().Unsubscribe(sub)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		waitFor(svc, func(s round.Snapshot) bool { return !s.Loading })

		_, err := svc.StartGame(ctx)
		So(err, ShouldBeNil)
		_, err = svc.Drop(ctx, 1)
		So(err, ShouldBeNil)

		Convey("Then state, placement and toast events are published", func() {
			seen := map[string]bool{}
			var placement round.Placement
			timeout := time.After(2 * time.Second)
		drain:
			for !(seen[service.EventState] && seen[service.EventPlacement] && seen[service.EventToast]) {
				select {
				case msg := <-sub:
					seen[msg.Event] = true
					if msg.Event == service.EventPlacement {
						_ = json.Unmarshal(msg.Data, &placement)
					}
				case <-timeout:
					break drain
				}
			}
			So(seen[service.EventState], ShouldBeTrue)
			So(seen[service.EventPlacement], ShouldBeTrue)
			So(seen[service.EventToast], ShouldBeTrue)
			So(placement.Correct, ShouldBeTrue)
		})
	})
}

func TestService_Demo(t *testing.T) {
	Convey("Given a demo on a fast clock", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		snap, err := svc.StartDemo(ctx)
		So(err, ShouldBeNil)
		So(snap.Demo, ShouldBeTrue)

		Convey("Then it plays and returns to idle without recording a score", func() {
			final := waitFor(svc, func(s round.Snapshot) bool { return !s.Demo })
			So(final.Demo, ShouldBeFalse)
			So(final.Phase, ShouldEqual, round.PhaseIdle)
			board, _ := svc.Scores(ctx)
			So(board, ShouldBeEmpty)
		})
	})
}
