// Package scoring holds the point formulas for placements and the ordering
// rules of the top score board.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/okian/wikiline/internal/domain/model"
)

// Default scoring constants.
const (
	defaultCorrectBase   = 10
	defaultStreakBonus   = 2
	defaultIncorrectBase = 5
	defaultBonusWindow   = 6 * time.Second

	// BoardLimit is the number of score records kept.
	BoardLimit = 10
)

// Option applies a configuration option to Rules.
type Option func(*Rules)

// WithCorrectBase sets the base points of a correct placement.
func WithCorrectBase(points int) Option {
	return func(r *Rules) {
		if points >= 0 {
			r.correctBase = points
		}
	}
}

// WithStreakBonus sets the points added per streak step on a correct placement.
func WithStreakBonus(points int) Option {
	return func(r *Rules) {
		if points >= 0 {
			r.streakBonus = points
		}
	}
}

// WithIncorrectBase sets the consolation points of a corrected placement.
func WithIncorrectBase(points int) Option {
	return func(r *Rules) {
		if points >= 0 {
			r.incorrectBase = points
		}
	}
}

// WithBonusWindow sets how long a card earns a time bonus.
func WithBonusWindow(d time.Duration) Option {
	return func(r *Rules) {
		if d > 0 {
			r.bonusWindow = d
		}
	}
}

// Rules computes placement points.
type Rules struct {
	correctBase   int
	streakBonus   int
	incorrectBase int
	bonusWindow   time.Duration
}

// NewRules creates Rules with the standard values, adjusted by opts.
func NewRules(opts ...Option) Rules {
	r := Rules{
		correctBase:   defaultCorrectBase,
		streakBonus:   defaultStreakBonus,
		incorrectBase: defaultIncorrectBase,
		bonusWindow:   defaultBonusWindow,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// TimeBonus is max(0, round(window - elapsed)) in whole seconds. Halves round up.
func (r Rules) TimeBonus(elapsed time.Duration) int {
	remaining := r.bonusWindow.Seconds() - elapsed.Seconds()
	return max(0, int(math.Floor(remaining+0.5)))
}

// CorrectPoints scores a correct placement. streak is the value after increment.
func (r Rules) CorrectPoints(streak, timeBonus int) int {
	return max(0, r.correctBase+streak*r.streakBonus+timeBonus)
}

// IncorrectPoints scores a placement that had to be corrected.
func (r Rules) IncorrectPoints(timeBonus int) int {
	return max(0, r.incorrectBase+timeBonus)
}

// Ranks reports whether a sorts before b on the board: higher score first,
// then faster round.
func Ranks(a, b model.ScoreRecord) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ElapsedMs < b.ElapsedMs
}

// InsertRanked returns a new board with rec added, sorted and truncated to limit.
// The input slice is not modified.
func InsertRanked(board []model.ScoreRecord, rec model.ScoreRecord, limit int) []model.ScoreRecord {
	out := make([]model.ScoreRecord, 0, len(board)+1)
	out = append(out, rec)
	out = append(out, board...)
	// Stable keeps the newest record ahead of an exact tie.
	sort.SliceStable(out, func(i, j int) bool { return Ranks(out[i], out[j]) })
	return Truncate(out, limit)
}

// Truncate caps board at limit entries. A non-positive limit keeps everything.
func Truncate(board []model.ScoreRecord, limit int) []model.ScoreRecord {
	if limit > 0 && len(board) > limit {
		return board[:limit]
	}
	return board
}
