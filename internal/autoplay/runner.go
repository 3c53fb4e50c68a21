// Package autoplay plays rounds against a running wikiline service through
// its HTTP API and checks that the score board stays consistent.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/internal/domain/scoring"
	"github.com/okian/wikiline/pkg/logger"
)

// Errors reported by a run.
var (
	ErrNotReady      = errors.New("round not ready")
	ErrBoardOrder    = errors.New("score board out of order")
	ErrBoardTooLong  = errors.New("score board exceeds limit")
	ErrScoreMismatch = errors.New("placement points do not add up")
)

// Runner plays rounds.
type Runner struct {
	cfg    *Config
	client *Client
	rng    *rand.Rand
	logger logger.Logger
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *Config) *Runner {
	return &Runner{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, cfg.Timeout),
		rng:    rand.New(rand.NewPCG(uint64(cfg.Seed), 0x5eed)), //nolint:gosec // choices, not secrets
		logger: logger.Get().Named("autoplay"),
	}
}

// Run executes the complete autoplay session.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewRunner(cfg).Run(ctx)
}

// Run plays cfg.Rounds rounds and verifies the board afterwards.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	r.logger.Info(ctx, "starting autoplay",
		logger.String("base_url", r.cfg.BaseURL),
		logger.Int("rounds", r.cfg.Rounds),
		logger.Float64("mistake_rate", r.cfg.MistakeRate),
	)

	// Step 1: Check service health
	if err := r.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Play rounds
	prev := ""
	for i := 0; i < r.cfg.Rounds; i++ {
		id, err := r.playRound(ctx, prev, stats)
		if err != nil {
			return stats, fmt.Errorf("round %d: %w", i+1, err)
		}
		prev = id
		stats.Rounds++
	}

	// Step 3: Verify the board
	if err := r.verifyBoard(ctx, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.logger.Info(ctx, "autoplay completed",
		logger.Int("rounds", stats.Rounds),
		logger.Int("placements", stats.Placements),
		logger.Int("correct", stats.Correct),
		logger.Int("best_score", stats.BestScore),
		logger.Duration("took", stats.Duration),
	)
	return stats, nil
}

func (r *Runner) playRound(ctx context.Context, prevID string, stats *Stats) (string, error) {
	if _, err := r.client.Reset(ctx); err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}
	snap, err := r.waitActive(ctx, prevID)
	if err != nil {
		return "", err
	}

	total := 0
	for snap.Current != nil {
		pos, deliberate := r.choose(snap)
		resp, err := r.client.Drop(ctx, pos)
		if err != nil {
			return "", fmt.Errorf("drop: %w", err)
		}
		p := resp.Placement
		stats.Placements++
		total += p.Points
		if p.Correct {
			stats.Correct++
		}
		if deliberate {
			stats.Mistakes++
		}
		if r.cfg.Verbose {
			r.logger.Info(ctx, "placed",
				logger.Int("year", p.Record.Year),
				logger.Int("requested", p.Requested),
				logger.Int("index", p.Index),
				logger.Bool("correct", p.Correct),
				logger.Int("points", p.Points),
			)
		}
		snap = resp.State
	}

	if snap.Score != total {
		return "", fmt.Errorf("%w: placements gave %d, round reports %d", ErrScoreMismatch, total, snap.Score)
	}
	stats.Points += total
	stats.BestScore = max(stats.BestScore, total)
	r.logger.Info(ctx, "round finished",
		logger.String("round_id", snap.RoundID),
		logger.Int("score", snap.Score),
		logger.String("elapsed", snap.ElapsedLabel),
	)
	return snap.RoundID, nil
}

// waitActive polls until a round other than prevID is being played.
func (r *Runner) waitActive(ctx context.Context, prevID string) (round.Snapshot, error) {
	op := func() (round.Snapshot, error) {
		snap, err := r.client.State(ctx)
		switch {
		case err != nil:
			return snap, err
		case snap.LoadError != nil:
			return snap, backoff.Permanent(fmt.Errorf("deck failed to load: %w", snap.LoadError))
		case snap.Phase != round.PhaseActive || snap.RoundID == prevID:
			return snap, ErrNotReady
		}
		return snap, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.cfg.PollInterval)),
		backoff.WithMaxElapsedTime(r.cfg.LoadTimeout),
	)
}

// choose returns where to drop the current card and whether the position
// was picked to be wrong.
func (r *Runner) choose(snap round.Snapshot) (int, bool) {
	slots := make([]model.EventRecord, len(snap.Slots))
	for i, s := range snap.Slots {
		slots[i] = s.EventRecord
	}
	correct := round.CorrectIndex(slots, snap.Current.Year)
	if r.cfg.MistakeRate == 0 || r.rng.Float64() >= r.cfg.MistakeRate {
		return correct, false
	}
	// Any gap other than the correct one; there are len(slots)+1 gaps.
	pos := r.rng.IntN(len(slots))
	if pos >= correct {
		pos++
	}
	return pos, true
}

func (r *Runner) verifyBoard(ctx context.Context, stats *Stats) error {
	board, err := r.client.Scores(ctx)
	if err != nil {
		return err
	}
	if len(board) > scoring.BoardLimit {
		return fmt.Errorf("%w: %d records", ErrBoardTooLong, len(board))
	}
	for i := 1; i < len(board); i++ {
		if scoring.Ranks(board[i], board[i-1]) {
			return fmt.Errorf("%w: record %d ranks above record %d", ErrBoardOrder, i, i-1)
		}
	}
	r.logger.Info(ctx, "score board verified",
		logger.Int("records", len(board)),
		logger.Int("best_score", stats.BestScore),
	)
	return nil
}
