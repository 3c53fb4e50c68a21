package worker

import (
	"github.com/okian/wikiline/pkg/logger"
)

// Option applies a configuration option to the EventLoop.
type Option func(*EventLoop)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *EventLoop) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *EventLoop) {
		if l != nil {
			w.logger = l
		}
	}
}
