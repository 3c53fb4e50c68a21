package round_test

import (
	"context"
	"errors"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type fakeProvider struct {
	batches [][]model.EventRecord
	err     error
	calls   int
}

func (p *fakeProvider) FetchEvents(_ context.Context, _ int) ([]model.EventRecord, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	i := min(p.calls-1, len(p.batches)-1)
	return append([]model.EventRecord(nil), p.batches[i]...), nil
}

type fakeStore struct {
	records []model.ScoreRecord
	loadErr error
	saveErr error
	saves   int
	clears  int
}

func (s *fakeStore) Load(context.Context) ([]model.ScoreRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]model.ScoreRecord(nil), s.records...), nil
}

func (s *fakeStore) Save(_ context.Context, recs []model.ScoreRecord) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records = append([]model.ScoreRecord(nil), recs...)
	return nil
}

func (s *fakeStore) Clear(context.Context) error {
	s.clears++
	s.records = nil
	return nil
}

type toast struct {
	msg  string
	kind round.Kind
}

type toasts struct{ got []toast }

func (t *toasts) Notify(msg string, kind round.Kind) { t.got = append(t.got, toast{msg, kind}) }

func (t *toasts) last() toast {
	if len(t.got) == 0 {
		return toast{}
	}
	return t.got[len(t.got)-1]
}

var errFeedDown = errors.New("feed down")

func years(ys ...int) []model.EventRecord {
	out := make([]model.EventRecord, len(ys))
	for i, y := range ys {
		out[i] = model.EventRecord{Year: y, Title: "Event of " + itoa(y)}
	}
	return out
}

func yearsOf(recs []model.EventRecord) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.Year
	}
	return out
}

func itoa(y int) string {
	if y == 0 {
		return "0"
	}
	neg := y < 0
	if neg {
		y = -y
	}
	var b []byte
	for y > 0 {
		b = append([]byte{byte('0' + y%10)}, b...)
		y /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func identity([]model.EventRecord) {}
