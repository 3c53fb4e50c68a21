// Package round implements the chronology game: loading a deck, dealing a
// round, scoring placements and tracking the round timer and score board.
//
// A Game is not safe for concurrent use. Every method, and every callback it
// schedules, runs on the logical thread of its clock.Scheduler.
package round

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wikiline/internal/domain/clock"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/scoring"
	"github.com/okian/wikiline/pkg/logger"
	"github.com/okian/wikiline/pkg/metrics"
)

// Default game configuration constants.
const (
	defaultFetchAttempts = 2
	defaultTick          = 250 * time.Millisecond
	storeTimeout         = 2 * time.Second
)

// Provider supplies the events for a round.
type Provider interface {
	FetchEvents(ctx context.Context, maxAttempts int) ([]model.EventRecord, error)
}

// Store persists the score board. Failures are tolerated by the Game.
type Store interface {
	Load(ctx context.Context) ([]model.ScoreRecord, error)
	Save(ctx context.Context, records []model.ScoreRecord) error
	Clear(ctx context.Context) error
}

// Phase is the coarse game state.
type Phase string

// Phases.
const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

// Game owns all round state.
type Game struct {
	provider Provider
	store    Store
	sched    clock.Scheduler
	notifier Notifier
	logger   logger.Logger
	rules    scoring.Rules
	shuffle  func([]model.EventRecord)

	fetchAttempts int
	tick          time.Duration
	boardLimit    int

	// Load lifecycle.
	events         []model.EventRecord
	loading        bool
	loadErr        *model.LoadError
	generation     uint64
	startRequested bool
	started        bool
	demo           bool

	// Round.
	roundID    string
	deck       []model.EventRecord
	slots      []model.EventRecord
	current    *model.EventRecord
	completed  bool
	correct    int
	attempts   int
	score      int
	streak     int
	bestStreak int
	cardStart  time.Time
	corrected  map[string]struct{}
	messages   map[string]string

	// Timer.
	roundStart time.Time
	elapsed    time.Duration
	timer      clock.Handle

	board []model.ScoreRecord

	listeners    []listener
	nextListener int
}

// New creates a Game.
func New(provider Provider, store Store, sched clock.Scheduler, opts ...Option) *Game {
	g := &Game{
		provider:      provider,
		store:         store,
		sched:         sched,
		notifier:      nopNotifier{},
		logger:        logger.Get().Named("round"),
		rules:         scoring.NewRules(),
		shuffle:       fisherYates,
		fetchAttempts: defaultFetchAttempts,
		tick:          defaultTick,
		boardLimit:    scoring.BoardLimit,
		corrected:     make(map[string]struct{}),
		messages:      make(map[string]string),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Init loads the persisted score board and starts fetching events without
// starting a round.
func (g *Game) Init(ctx context.Context) {
	g.loadScoreboard(ctx)
	g.loadEvents(ctx, false)
}

// StartGame starts a regular round, cancelling any demo. If events are still
// loading the round starts when they arrive; if the last load failed the
// events are fetched again.
func (g *Game) StartGame(ctx context.Context) {
	g.endDemoState()
	g.begin(ctx)
}

// StartDemo starts a round with the demo flag set. Demo rounds are never
// recorded on the score board.
func (g *Game) StartDemo(ctx context.Context) {
	if !g.demo {
		g.demo = true
		g.emit(Change{Topic: TopicDemo})
	}
	g.begin(ctx)
}

func (g *Game) begin(ctx context.Context) {
	g.startRequested = true
	switch {
	case g.loading:
		g.logger.Debug(ctx, "start deferred until events arrive")
	case g.loadErr != nil:
		g.loadEvents(ctx, true)
	case len(g.events) > 0:
		g.startRound(ctx, g.events)
		g.started = true
		g.startRequested = false
	default:
		g.loadEvents(ctx, true)
	}
}

// Reset abandons the current round and deals a new one from freshly
// fetched events.
func (g *Game) Reset(ctx context.Context) {
	g.endDemoState()
	g.stopTimer()
	g.loadEvents(ctx, true)
}

// EndDemo leaves demo mode and returns to idle, discarding the demo round.
// A regular round is left untouched.
func (g *Game) EndDemo(ctx context.Context) {
	if !g.demo {
		return
	}
	g.endDemoState()
	g.stopTimer()
	g.clearRound()
	g.logger.Info(ctx, "demo ended", logger.String("round_id", g.roundID))
	g.emit(Change{Topic: TopicRound})
}

func (g *Game) endDemoState() {
	g.startRequested = false
	if g.demo {
		g.demo = false
		g.emit(Change{Topic: TopicDemo})
	}
}

// loadEvents fetches off the loop. Only the completion of the most recent
// fetch is applied; earlier ones are discarded.
func (g *Game) loadEvents(ctx context.Context, autoStart bool) {
	g.generation++
	gen := g.generation
	g.loading = true
	g.loadErr = nil
	g.emit(Change{Topic: TopicLoad})

	// The fetch outlives the request that triggered it.
	fetchCtx := context.WithoutCancel(ctx)
	attempts := g.fetchAttempts
	g.sched.Spawn(func() func() {
		events, err := g.provider.FetchEvents(fetchCtx, attempts)
		return func() {
			g.finishLoad(fetchCtx, gen, autoStart, events, err)
		}
	})
}

func (g *Game) finishLoad(ctx context.Context, gen uint64, autoStart bool, events []model.EventRecord, err error) {
	if gen != g.generation {
		metrics.RecordStaleFetch()
		g.logger.Debug(ctx, "discarding stale fetch",
			logger.Int64("generation", int64(gen)),
			logger.Int64("latest", int64(g.generation)),
		)
		return
	}
	g.loading = false

	if err != nil {
		g.failLoad(ctx, err)
		return
	}

	g.events = events
	g.logger.Info(ctx, "events loaded", logger.Int("count", len(events)))
	if autoStart || g.startRequested {
		g.startRound(ctx, events)
		g.started = true
		g.startRequested = false
	}
	g.emit(Change{Topic: TopicLoad})
}

func (g *Game) failLoad(ctx context.Context, err error) {
	g.loadErr = model.AsLoadError(err)
	g.logger.Warn(ctx, "events failed to load", logger.Error(err))

	g.started = false
	g.startRequested = false
	g.stopTimer()
	g.clearRound()
	g.endDemoState()
	g.emit(Change{Topic: TopicLoad})
	g.emit(Change{Topic: TopicRound})
}

// clearRound empties the deal together so the count invariant holds.
func (g *Game) clearRound() {
	g.current = nil
	g.slots = nil
	g.deck = nil
	g.completed = false
}

func (g *Game) startRound(ctx context.Context, events []model.EventRecord) {
	shuffled := append([]model.EventRecord(nil), events...)
	g.shuffle(shuffled)
	if len(shuffled) == 0 {
		return
	}

	g.roundID = uuid.NewString()
	g.slots = []model.EventRecord{shuffled[0]}
	rest := shuffled[1:]
	if len(rest) > 0 {
		next := rest[0]
		g.current = &next
		g.deck = append([]model.EventRecord(nil), rest[1:]...)
	} else {
		g.current = nil
		g.deck = nil
	}

	g.correct, g.attempts, g.score, g.streak, g.bestStreak = 0, 0, 0, 0, 0
	g.cardStart = g.sched.Now()
	g.corrected = make(map[string]struct{})
	g.messages = make(map[string]string)
	g.completed = false
	g.startTimer()

	metrics.RecordRoundStarted(g.demo)
	g.logger.Info(ctx, "round started",
		logger.String("round_id", g.roundID),
		logger.Int("events", len(shuffled)),
		logger.Bool("demo", g.demo),
	)
	g.emit(Change{Topic: TopicRound})
}

func (g *Game) complete(ctx context.Context) {
	g.completed = true
	g.stopTimer()
	g.elapsed = g.sched.Now().Sub(g.roundStart)
	metrics.RecordRoundCompleted(g.demo)

	g.logger.Info(ctx, "round completed",
		logger.String("round_id", g.roundID),
		logger.Int("score", g.score),
		logger.Int("correct", g.correct),
		logger.Int("attempts", g.attempts),
		logger.Duration("elapsed", g.elapsed),
		logger.Bool("demo", g.demo),
	)

	if !g.demo {
		rec := model.ScoreRecord{
			Score:      g.score,
			ElapsedMs:  g.elapsed.Milliseconds(),
			Correct:    g.correct,
			Attempts:   g.attempts,
			BestStreak: g.bestStreak,
			FinishedAt: g.sched.Now().UTC(),
		}
		g.board = scoring.InsertRanked(g.board, rec, g.boardLimit)
		g.saveScoreboard(ctx)
		g.emit(Change{Topic: TopicScoreboard})
	}
	g.emit(Change{Topic: TopicRound})
}

// ClearScoreboard empties the score board.
func (g *Game) ClearScoreboard(ctx context.Context) {
	g.board = nil
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := g.store.Clear(sctx); err != nil {
		metrics.RecordStoreError("clear")
		g.logger.Warn(ctx, "clearing score board failed", logger.Error(err))
	}
	g.emit(Change{Topic: TopicScoreboard})
}

func (g *Game) loadScoreboard(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	records, err := g.store.Load(sctx)
	if err != nil {
		metrics.RecordStoreError("load")
		g.logger.Warn(ctx, "loading score board failed", logger.Error(err))
		records = nil
	}
	g.board = scoring.Truncate(records, g.boardLimit)
	g.emit(Change{Topic: TopicScoreboard})
}

func (g *Game) saveScoreboard(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := g.store.Save(sctx, g.board); err != nil {
		metrics.RecordStoreError("save")
		g.logger.Warn(ctx, "saving score board failed", logger.Error(err))
	}
}
