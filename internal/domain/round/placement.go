package round

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/pkg/logger"
	"github.com/okian/wikiline/pkg/metrics"
)

// Placement describes the outcome of one DropAt.
type Placement struct {
	Record    model.EventRecord `json:"record"`
	Correct   bool              `json:"correct"`
	Points    int               `json:"points"`
	TimeBonus int               `json:"timeBonus"`
	// Index is where the record ended up in the timeline.
	Index int `json:"index"`
	// Requested is the position the player dropped at.
	Requested int    `json:"requested"`
	Message   string `json:"message,omitempty"`
	Toast     string `json:"toast"`
	Completed bool   `json:"completed"`
}

// DropAt places rec at position in the timeline and advances to the next
// card. A wrong placement is corrected in place. It is a no-op returning
// false when rec is nil or no card is being placed.
func (g *Game) DropAt(ctx context.Context, rec *model.EventRecord, position int) (Placement, bool) {
	if rec == nil || g.current == nil {
		return Placement{}, false
	}
	dragged := *rec
	position = min(max(position, 0), len(g.slots))

	tentative := slices.Insert(slices.Clone(g.slots), position, dragged)
	now := g.sched.Now()
	bonus := g.rules.TimeBonus(max(0, now.Sub(g.cardStart)))

	p := Placement{Record: dragged, TimeBonus: bonus, Requested: position}
	g.attempts++

	if nonDecreasing(tentative) {
		g.streak++
		g.bestStreak = max(g.bestStreak, g.streak)
		p.Points = g.rules.CorrectPoints(g.streak, bonus)
		p.Correct = true
		p.Index = position
		p.Toast = fmt.Sprintf("Nice! +%d points.", p.Points)
		g.correct++
		g.score += p.Points
		g.slots = tentative
		g.notifier.Notify(p.Toast, KindSuccess)
	} else {
		idx := CorrectIndex(g.slots, dragged.Year)
		corrected := slices.Insert(slices.Clone(g.slots), idx, dragged)
		p.Message = explain(dragged.Year, corrected, idx)
		p.Points = g.rules.IncorrectPoints(bonus)
		p.Index = idx
		if p.Points > 0 {
			p.Toast = fmt.Sprintf("Not quite. %s +%d points.", p.Message, p.Points)
		} else {
			p.Toast = fmt.Sprintf("Not quite. %s Moved to the correct position.", p.Message)
		}
		g.streak = 0
		g.score += p.Points
		g.slots = corrected
		key := dragged.Key()
		g.corrected[key] = struct{}{}
		g.messages[key] = p.Message
		g.notifier.Notify(p.Toast, KindWarning)
	}

	if len(g.deck) > 0 {
		next := g.deck[0]
		g.current = &next
		g.deck = g.deck[1:]
	} else {
		g.current = nil
		g.deck = nil
	}
	g.cardStart = now
	p.Completed = g.current == nil

	outcome := "incorrect"
	if p.Correct {
		outcome = "correct"
	}
	metrics.RecordPlacement(outcome, g.demo, p.Points)
	g.logger.Debug(ctx, "placement",
		logger.String("round_id", g.roundID),
		logger.Int("year", dragged.Year),
		logger.String("outcome", outcome),
		logger.Int("points", p.Points),
		logger.Int("index", p.Index),
	)

	g.emit(Change{Topic: TopicPlacement, Placement: &p})
	g.emit(Change{Topic: TopicSlots})

	if p.Completed {
		g.complete(ctx)
	}
	return p, true
}

// MoveSlot moves a placed card from one timeline position to another without
// scoring it. Out-of-range positions are ignored and reported as false.
func (g *Game) MoveSlot(from, to int) bool {
	n := len(g.slots)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	moved := g.slots[from]
	next := slices.Delete(slices.Clone(g.slots), from, from+1)
	g.slots = slices.Insert(next, to, moved)
	g.emit(Change{Topic: TopicSlots})
	return true
}

// IsCorrected reports whether rec was ever misplaced this round.
func (g *Game) IsCorrected(rec model.EventRecord) bool {
	_, ok := g.corrected[rec.Key()]
	return ok
}

// IncorrectMessage returns the explanation stored for a misplaced rec.
func (g *Game) IncorrectMessage(rec model.EventRecord) (string, bool) {
	msg, ok := g.messages[rec.Key()]
	return msg, ok
}

// CorrectIndex is the first position in slots whose year is greater than
// year, or len(slots) if there is none.
func CorrectIndex(slots []model.EventRecord, year int) int {
	for i, s := range slots {
		if s.Year > year {
			return i
		}
	}
	return len(slots)
}

func nonDecreasing(list []model.EventRecord) bool {
	for i := 1; i < len(list); i++ {
		if list[i-1].Year > list[i].Year {
			return false
		}
	}
	return true
}

// explain names the true year and the neighbours of index in list.
func explain(year int, list []model.EventRecord, index int) string {
	hasPrev := index > 0
	hasNext := index < len(list)-1
	switch {
	case !hasPrev && hasNext:
		return fmt.Sprintf("This event was %d and you placed it before %d.", year, list[index+1].Year)
	case hasPrev && !hasNext:
		return fmt.Sprintf("This event was %d and you placed it after %d.", year, list[index-1].Year)
	case hasPrev && hasNext:
		return fmt.Sprintf("This event was %d and you placed it between %d and %d.", year, list[index-1].Year, list[index+1].Year)
	default:
		return fmt.Sprintf("This event was %d.", year)
	}
}
