// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers an optional YAML file and WIKILINE_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Score store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// FetchAttempts is how many feed requests a single load may make.
	FetchAttempts int `koanf:"fetch_attempts"`

	// FetchTimeoutMS bounds one feed request.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// WikipediaBaseURL is the REST root, without trailing slash.
	WikipediaBaseURL string `koanf:"wikipedia_base_url"`

	// MaxEvents and MinEvents bound the size of a loaded deck.
	MaxEvents int `koanf:"max_events"`
	MinEvents int `koanf:"min_events"`

	// ScoreBackend selects memory, file or sqlite persistence.
	ScoreBackend string `koanf:"score_backend"`

	// ScorePath is the JSON file or SQLite database path.
	ScorePath string `koanf:"score_path"`

	// TimerTickMS is the round timer refresh interval.
	TimerTickMS int `koanf:"timer_tick_ms"`

	// DemoMaxSteps caps how many cards the demo places.
	DemoMaxSteps int `koanf:"demo_max_steps"`

	// DemoSpeed multiplies every demo delay. 1 is real time, 0.5 twice as fast.
	DemoSpeed float64 `koanf:"demo_speed"`

	// LoopQueueSize bounds the event loop task queue.
	LoopQueueSize int `koanf:"loop_queue_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		FetchAttempts:    2,
		FetchTimeoutMS:   5000,
		WikipediaBaseURL: "https://en.wikipedia.org/api/rest_v1",
		MaxEvents:        10,
		MinEvents:        5,
		ScoreBackend:     BackendMemory,
		ScorePath:        "",
		TimerTickMS:      250,
		DemoMaxSteps:     3,
		DemoSpeed:        1,
		LoopQueueSize:    1024,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// TimerTick returns TimerTickMS as a duration.
func (c *Config) TimerTick() time.Duration {
	return time.Duration(c.TimerTickMS) * time.Millisecond
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.FetchAttempts < 1:
		return fmt.Errorf("%w: fetch_attempts must be at least 1", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.WikipediaBaseURL == "":
		return fmt.Errorf("%w: wikipedia_base_url must not be empty", ErrInvalidConfig)
	case c.MinEvents < 2:
		return fmt.Errorf("%w: min_events must be at least 2", ErrInvalidConfig)
	case c.MaxEvents < c.MinEvents:
		return fmt.Errorf("%w: max_events (%d) below min_events (%d)", ErrInvalidConfig, c.MaxEvents, c.MinEvents)
	case c.TimerTickMS <= 0:
		return fmt.Errorf("%w: timer_tick_ms must be positive", ErrInvalidConfig)
	case c.DemoMaxSteps < 0:
		return fmt.Errorf("%w: demo_max_steps must not be negative", ErrInvalidConfig)
	case c.DemoSpeed <= 0:
		return fmt.Errorf("%w: demo_speed must be positive", ErrInvalidConfig)
	case c.LoopQueueSize < 1:
		return fmt.Errorf("%w: loop_queue_size must be at least 1", ErrInvalidConfig)
	}

	switch c.ScoreBackend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.ScorePath == "" {
			return fmt.Errorf("%w: score_path is required for the %s backend", ErrInvalidConfig, c.ScoreBackend)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownBackend, c.ScoreBackend)
	}
	return nil
}
