package scheduler

import (
	"time"

	"github.com/okian/wikiline/pkg/logger"
)

// Option applies a configuration option to the Loop.
type Option func(*Loop)

// WithQueueSize bounds the number of pending loop tasks.
func WithQueueSize(size int) Option {
	return func(l *Loop) {
		if size > 0 {
			l.queueSize = size
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// ManualOption applies a configuration option to Manual.
type ManualOption func(*Manual)

// WithStart sets the initial time of a Manual clock.
func WithStart(t time.Time) ManualOption {
	return func(m *Manual) {
		if !t.IsZero() {
			m.now = t
		}
	}
}
