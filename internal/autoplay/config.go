package autoplay

import (
	"errors"
	"time"
)

// Defaults for the autoplay run.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultRounds       = 3
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 200 * time.Millisecond
	DefaultLoadTimeout  = 30 * time.Second
)

// ErrInvalidConfig wraps configuration problems.
var ErrInvalidConfig = errors.New("invalid autoplay config")

// Config holds configuration for an autoplay run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Rounds       int           // Number of rounds to play
	MistakeRate  float64       // Share of cards deliberately misplaced, 0..1
	Seed         int64         // Seed for the misplacement choices
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Wait between state polls while a deck loads
	LoadTimeout  time.Duration // Give up on a deck after this long
	Verbose      bool          // Log every placement
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		Rounds:       DefaultRounds,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		LoadTimeout:  DefaultLoadTimeout,
	}
}

// Validate checks the run can proceed.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url must not be empty"))
	case c.Rounds < 1:
		return errors.Join(ErrInvalidConfig, errors.New("rounds must be at least 1"))
	case c.MistakeRate < 0 || c.MistakeRate > 1:
		return errors.Join(ErrInvalidConfig, errors.New("mistake rate must be within 0..1"))
	case c.Timeout <= 0 || c.PollInterval <= 0 || c.LoadTimeout <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("timeouts must be positive"))
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Rounds     int
	Placements int
	Correct    int
	Mistakes   int // deliberate misplacements
	Points     int
	BestScore  int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
