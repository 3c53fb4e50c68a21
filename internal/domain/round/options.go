package round

import (
	"math/rand/v2"
	"time"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/scoring"
	"github.com/okian/wikiline/pkg/logger"
)

// Option applies a configuration option to the Game.
type Option func(*Game)

// WithRules overrides the point formulas.
func WithRules(r scoring.Rules) Option {
	return func(g *Game) {
		g.rules = r
	}
}

// WithNotifier sets where toasts go.
func WithNotifier(n Notifier) Option {
	return func(g *Game) {
		if n != nil {
			g.notifier = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithFetchAttempts sets how many feed requests one load may make.
func WithFetchAttempts(n int) Option {
	return func(g *Game) {
		if n > 0 {
			g.fetchAttempts = n
		}
	}
}

// WithTickInterval sets how often the round timer refreshes.
func WithTickInterval(d time.Duration) Option {
	return func(g *Game) {
		if d > 0 {
			g.tick = d
		}
	}
}

// WithShuffle replaces the deck shuffle. Tests use it to fix the deal order.
func WithShuffle(shuffle func([]model.EventRecord)) Option {
	return func(g *Game) {
		if shuffle != nil {
			g.shuffle = shuffle
		}
	}
}

// WithBoardLimit sets how many score records are kept.
func WithBoardLimit(n int) Option {
	return func(g *Game) {
		if n > 0 {
			g.boardLimit = n
		}
	}
}

// fisherYates is the default deck shuffle.
func fisherYates(events []model.EventRecord) {
	rand.Shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})
}
