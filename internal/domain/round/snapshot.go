package round

import (
	"slices"
	"time"

	"github.com/okian/wikiline/internal/domain/model"
)

// SlotView is a placed card with its feedback.
type SlotView struct {
	model.EventRecord
	Corrected bool   `json:"corrected"`
	Message   string `json:"message,omitempty"`
}

// Snapshot is a copy of everything a front end shows.
type Snapshot struct {
	RoundID      string              `json:"roundId,omitempty"`
	Phase        Phase               `json:"phase"`
	Demo         bool                `json:"demo"`
	Started      bool                `json:"started"`
	Loading      bool                `json:"loading"`
	LoadError    *model.LoadError    `json:"loadError,omitempty"`
	Current      *model.EventRecord  `json:"current"`
	Slots        []SlotView          `json:"slots"`
	DeckLen      int                 `json:"deckRemaining"`
	Correct      int                 `json:"correct"`
	Attempts     int                 `json:"attempts"`
	Score        int                 `json:"score"`
	Streak       int                 `json:"streak"`
	BestStreak   int                 `json:"bestStreak"`
	ElapsedMs    int64               `json:"elapsedMs"`
	ElapsedLabel string              `json:"elapsedLabel"`
	Scoreboard   []model.ScoreRecord `json:"scoreboard"`
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	slots := make([]SlotView, len(g.slots))
	for i, s := range g.slots {
		msg, bad := g.messages[s.Key()]
		slots[i] = SlotView{EventRecord: s, Corrected: bad, Message: msg}
	}
	var le *model.LoadError
	if g.loadErr != nil {
		c := *g.loadErr
		le = &c
	}
	return Snapshot{
		RoundID:      g.roundID,
		Phase:        g.Phase(),
		Demo:         g.demo,
		Started:      g.started,
		Loading:      g.loading,
		LoadError:    le,
		Current:      g.Current(),
		Slots:        slots,
		DeckLen:      len(g.deck),
		Correct:      g.correct,
		Attempts:     g.attempts,
		Score:        g.score,
		Streak:       g.streak,
		BestStreak:   g.bestStreak,
		ElapsedMs:    g.elapsed.Milliseconds(),
		ElapsedLabel: g.ElapsedLabel(),
		Scoreboard:   g.Scoreboard(),
	}
}

// Phase derives the coarse state.
func (g *Game) Phase() Phase {
	switch {
	case g.loading:
		return PhaseLoading
	case g.completed:
		return PhaseCompleted
	case g.current != nil:
		return PhaseActive
	default:
		return PhaseIdle
	}
}

// Current returns a copy of the card being placed, or nil.
func (g *Game) Current() *model.EventRecord {
	if g.current == nil {
		return nil
	}
	c := *g.current
	return &c
}

// Slots returns a copy of the timeline.
func (g *Game) Slots() []model.EventRecord { return slices.Clone(g.slots) }

// DeckLen is the number of cards still to come after Current.
func (g *Game) DeckLen() int { return len(g.deck) }

// Correct counts placements that landed in order this round.
func (g *Game) Correct() int { return g.correct }

// Attempts counts every placement this round.
func (g *Game) Attempts() int { return g.attempts }

// Score is the running point total.
func (g *Game) Score() int { return g.score }

// Streak is the number of correct placements in a row.
func (g *Game) Streak() int { return g.streak }

// BestStreak is the longest streak reached this round.
func (g *Game) BestStreak() int { return g.bestStreak }

// Elapsed is the round time as of the last timer tick, or the final time
// once the round is complete.
func (g *Game) Elapsed() time.Duration { return g.elapsed }

// ElapsedLabel is Elapsed as m:ss.
func (g *Game) ElapsedLabel() string { return FormatElapsed(g.elapsed) }

// Scoreboard returns a copy of the score board. Never nil.
func (g *Game) Scoreboard() []model.ScoreRecord {
	return append([]model.ScoreRecord{}, g.board...)
}

// LoadError is the last load failure, or nil.
func (g *Game) LoadError() *model.LoadError { return g.loadErr }

// Loading reports whether an event fetch is in flight.
func (g *Game) Loading() bool { return g.loading }

// DemoMode reports whether the current round is a demo.
func (g *Game) DemoMode() bool { return g.demo }

// Started reports whether a round has been dealt since the game began.
func (g *Game) Started() bool { return g.started }

// RoundID identifies the current deal.
func (g *Game) RoundID() string { return g.roundID }
