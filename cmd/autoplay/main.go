package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/wikiline/internal/autoplay"
	"github.com/okian/wikiline/pkg/logger"
)

// defaultRunTimeout bounds the whole session.
const defaultRunTimeout = 10 * time.Minute

func main() {
	cfg := autoplay.NewConfig()
	flag.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	flag.IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "Number of rounds to play")
	flag.Float64Var(&cfg.MistakeRate, "mistakes", 0, "Share of cards to misplace on purpose (0..1)")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "Seed for misplacement choices")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	flag.DurationVar(&cfg.LoadTimeout, "load-timeout", cfg.LoadTimeout, "How long to wait for a deck to load")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Log every placement")
	runTimeout := flag.Duration("run-timeout", defaultRunTimeout, "Overall time limit")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *runTimeout)
	defer cancel()

	stats, err := autoplay.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "autoplay failed", logger.Error(err))
		os.Exit(1)
	}

	fmt.Printf("rounds: %d  placements: %d  correct: %d  deliberate mistakes: %d\n",
		stats.Rounds, stats.Placements, stats.Correct, stats.Mistakes)
	fmt.Printf("points: %d  best round: %d  took: %s\n",
		stats.Points, stats.BestScore, stats.Duration.Round(time.Millisecond))
}
