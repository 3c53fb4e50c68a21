// Package service wires the game, its event loop, the demo sequencer and
// the persistence and feed adapters, and exposes goroutine-safe operations
// for the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/wikiline/internal/adapters/provider/wikipedia"
	"github.com/okian/wikiline/internal/adapters/realtime"
	"github.com/okian/wikiline/internal/adapters/repository"
	"github.com/okian/wikiline/internal/adapters/scheduler"
	"github.com/okian/wikiline/internal/config"
	"github.com/okian/wikiline/internal/domain/demo"
	"github.com/okian/wikiline/internal/domain/geometry"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/pkg/logger"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidLayout = errors.New("invalid layout")
	ErrNoCard        = errors.New("no card to place")
)

// Stream event names.
const (
	EventState     = "state"
	EventTimer     = "timer"
	EventPlacement = "placement"
	EventToast     = "toast"
	EventDemo      = "demo"
)

// Toast is a short message for the player.
type Toast struct {
	Message string     `json:"message"`
	Kind    round.Kind `json:"kind"`
}

// TimerUpdate is published on every timer tick.
type TimerUpdate struct {
	ElapsedMs int64  `json:"elapsedMs"`
	Label     string `json:"label"`
}

// Service owns the game and the goroutine it runs on.
type Service struct {
	mu sync.RWMutex

	cfg      *config.Config
	provider round.Provider
	store    repository.Store
	ownStore bool
	hub      *realtime.Broadcaster
	gameOpts []round.Option

	loop *scheduler.Loop
	game *round.Game
	demo *demo.Sequencer

	// layout is only touched on the loop.
	layout geometry.StackLayout

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithProvider replaces the Wikipedia feed client.
func WithProvider(p round.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithStore replaces the configured score store. The caller keeps ownership
// and closes it.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithGameOptions passes extra options to the game.
func WithGameOptions(opts ...round.Option) Option {
	return func(s *Service) {
		s.gameOpts = append(s.gameOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		hub:    realtime.NewBroadcaster(0),
		layout: geometry.DefaultStackLayout(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, starts the loop and initialises the game.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting wikiline service...")

	if s.store == nil {
		st, err := repository.Open(ctx, s.cfg.ScoreBackend, s.cfg.ScorePath)
		if err != nil {
			return fmt.Errorf("open score store: %w", err)
		}
		s.store = st
		s.ownStore = true
	}
	if s.provider == nil {
		s.provider = wikipedia.New(
			wikipedia.WithBaseURL(s.cfg.WikipediaBaseURL),
			wikipedia.WithTimeout(s.cfg.FetchTimeout()),
			wikipedia.WithEventLimits(s.cfg.MaxEvents, s.cfg.MinEvents),
		)
	}

	s.loop = scheduler.NewLoop(scheduler.WithQueueSize(s.cfg.LoopQueueSize))
	s.loop.Start(context.WithoutCancel(ctx))

	gameOpts := append([]round.Option{
		round.WithNotifier(round.NotifierFunc(s.publishToast)),
		round.WithFetchAttempts(s.cfg.FetchAttempts),
		round.WithTickInterval(s.cfg.TimerTick()),
	}, s.gameOpts...)
	s.game = round.New(s.provider, s.store, s.loop, gameOpts...)
	s.demo = demo.New(s.game, s.loop,
		demo.WithMaxSteps(s.cfg.DemoMaxSteps),
		demo.WithSpeed(s.cfg.DemoSpeed),
		demo.WithSurface(demo.SurfaceFunc(s.measure)),
		demo.WithSink(demo.SinkFunc(s.publishFrame)),
	)

	err := s.loop.Do(ctx, func() {
		s.game.OnChange(s.publishChange)
		s.demo.Attach(ctx)
		s.game.Init(ctx)
	})
	if err != nil {
		_ = s.loop.Stop(ctx)
		return fmt.Errorf("init game: %w", err)
	}

	s.started = true
	s.logger.Info(ctx, "wikiline service started",
		logger.String("score_backend", s.cfg.ScoreBackend),
		logger.Int("fetch_attempts", s.cfg.FetchAttempts),
		logger.Int("demo_max_steps", s.cfg.DemoMaxSteps),
	)
	return nil
}

// Stop cancels the demo, stops the loop and closes the store it opened.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping wikiline service...")

	_ = s.loop.Do(ctx, func() { s.demo.Detach() })
	var errs []error
	if err := s.loop.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.ownStore {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close score store: %w", err))
		}
		s.store = nil
		s.ownStore = false
	}

	s.started = false
	s.logger.Info(ctx, "wikiline service stopped")
	return errors.Join(errs...)
}

// Broadcaster returns the hub stream subscribers attach to.
func (s *Service) Broadcaster() *realtime.Broadcaster { return s.hub }

// do runs fn on the loop.
func (s *Service) do(ctx context.Context, fn func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.loop.Do(ctx, fn)
}

// State returns a snapshot of the game.
func (s *Service) State(ctx context.Context) (round.Snapshot, error) {
	var snap round.Snapshot
	err := s.do(ctx, func() { snap = s.game.Snapshot() })
	return snap, err
}

func (s *Service) act(ctx context.Context, fn func(g *round.Game)) (round.Snapshot, error) {
	var snap round.Snapshot
	err := s.do(ctx, func() {
		fn(s.game)
		snap = s.game.Snapshot()
	})
	return snap, err
}

// StartGame starts a regular round.
func (s *Service) StartGame(ctx context.Context) (round.Snapshot, error) {
	return s.act(ctx, func(g *round.Game) { g.StartGame(ctx) })
}

// StartDemo starts a demo round.
func (s *Service) StartDemo(ctx context.Context) (round.Snapshot, error) {
	return s.act(ctx, func(g *round.Game) { g.StartDemo(ctx) })
}

// EndDemo stops the demo and returns to idle.
func (s *Service) EndDemo(ctx context.Context) (round.Snapshot, error) {
	return s.act(ctx, func(g *round.Game) { g.EndDemo(ctx) })
}

// Reset deals a new round from freshly fetched events.
func (s *Service) Reset(ctx context.Context) (round.Snapshot, error) {
	return s.act(ctx, func(g *round.Game) { g.Reset(ctx) })
}

// Drop places the current card at position.
func (s *Service) Drop(ctx context.Context, position int) (round.Placement, error) {
	var (
		p  round.Placement
		ok bool
	)
	err := s.do(ctx, func() {
		p, ok = s.game.DropAt(ctx, s.game.Current(), position)
	})
	if err != nil {
		return round.Placement{}, err
	}
	if !ok {
		return round.Placement{}, ErrNoCard
	}
	return p, nil
}

// DropAtPoint resolves a pointer position against the timeline and places
// the current card there. The pointer must be over the list.
func (s *Service) DropAtPoint(ctx context.Context, pt geometry.Point, scrollTop float64) (round.Placement, geometry.Hover, error) {
	var (
		p     round.Placement
		hover geometry.Hover
		over  bool
		ok    bool
	)
	err := s.do(ctx, func() {
		hover, over = s.timelineHover(pt, scrollTop)
		if !over {
			return
		}
		p, ok = s.game.DropAt(ctx, s.game.Current(), hover.Index)
	})
	switch {
	case err != nil:
		return round.Placement{}, hover, err
	case !over:
		return round.Placement{}, hover, fmt.Errorf("%w: pointer is outside the timeline", ErrNoCard)
	case !ok:
		return round.Placement{}, hover, ErrNoCard
	}
	return p, hover, nil
}

// MoveSlot reorders placed cards without scoring.
func (s *Service) MoveSlot(ctx context.Context, from, to int) (bool, error) {
	var ok bool
	err := s.do(ctx, func() { ok = s.game.MoveSlot(from, to) })
	return ok, err
}

// HoverTimeline resolves the insertion point under pt with the list
// scrolled to scrollTop.
func (s *Service) HoverTimeline(ctx context.Context, pt geometry.Point, scrollTop float64) (geometry.Hover, bool, error) {
	var (
		hover geometry.Hover
		over  bool
	)
	err := s.do(ctx, func() { hover, over = s.timelineHover(pt, scrollTop) })
	return hover, over, err
}

func (s *Service) timelineHover(pt geometry.Point, scrollTop float64) (geometry.Hover, bool) {
	m := s.measure(len(s.game.Slots()), scrollTop)
	return geometry.TimelineHover(pt, m.List, m.Cards, m.CardHeight)
}

// SetLayout replaces the card stack measurements used for hover and demo.
func (s *Service) SetLayout(ctx context.Context, l geometry.StackLayout) error {
	switch {
	case l.Width <= 0:
		return fmt.Errorf("%w: width must be positive", ErrInvalidLayout)
	case l.CardHeight <= 0:
		return fmt.Errorf("%w: cardHeight must be positive", ErrInvalidLayout)
	case l.Gap < 0 || l.Padding < 0 || l.ViewHeight < 0:
		return fmt.Errorf("%w: gap, padding and viewHeight must not be negative", ErrInvalidLayout)
	}
	return s.do(ctx, func() { s.layout = l })
}

// Layout returns the card stack measurements in use.
func (s *Service) Layout(ctx context.Context) (geometry.StackLayout, error) {
	var l geometry.StackLayout
	err := s.do(ctx, func() { l = s.layout })
	return l, err
}

// Scores returns the score board.
func (s *Service) Scores(ctx context.Context) ([]model.ScoreRecord, error) {
	var board []model.ScoreRecord
	err := s.do(ctx, func() { board = s.game.Scoreboard() })
	return board, err
}

// ClearScores empties the score board.
func (s *Service) ClearScores(ctx context.Context) error {
	return s.do(ctx, func() { s.game.ClearScoreboard(ctx) })
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	stats := map[string]any{
		"started":      false,
		"subscribers":  s.hub.Len(),
		"scoreBackend": s.cfg.ScoreBackend,
	}
	_ = s.do(ctx, func() {
		stats["started"] = true
		stats["phase"] = s.game.Phase()
		stats["demo"] = s.game.DemoMode()
		stats["demoRunning"] = s.demo.Running()
		stats["timersPending"] = s.loop.Pending()
		stats["scoreboardSize"] = len(s.game.Scoreboard())
	})
	return stats
}

func (s *Service) measure(count int, scrollTop float64) demo.Measurements {
	return demo.NewStackSurface(s.layout).Measure(count, scrollTop)
}

func (s *Service) publishChange(c round.Change) {
	switch c.Topic {
	case round.TopicTimer:
		s.publish(EventTimer, TimerUpdate{
			ElapsedMs: s.game.Elapsed().Milliseconds(),
			Label:     s.game.ElapsedLabel(),
		})
	case round.TopicPlacement:
		if c.Placement != nil {
			s.publish(EventPlacement, c.Placement)
		}
	default:
		s.publish(EventState, s.game.Snapshot())
	}
}

func (s *Service) publishToast(msg string, kind round.Kind) {
	s.publish(EventToast, Toast{Message: msg, Kind: kind})
}

func (s *Service) publishFrame(f demo.Frame) {
	s.publish(EventDemo, f)
}

func (s *Service) publish(event string, v any) {
	if s.hub.Len() == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error(context.Background(), "encoding stream event failed",
			logger.String("event", event),
			logger.Error(err),
		)
		return
	}
	s.hub.Publish(event, data)
}
