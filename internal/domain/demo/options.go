package demo

import (
	"github.com/okian/wikiline/pkg/logger"
)

// Option applies a configuration option to the Sequencer.
type Option func(*Sequencer)

// WithMaxSteps caps how many cards the demo places before ending.
func WithMaxSteps(n int) Option {
	return func(s *Sequencer) {
		if n >= 0 {
			s.maxSteps = n
		}
	}
}

// WithSpeed scales every delay. 0.5 plays twice as fast.
func WithSpeed(f float64) Option {
	return func(s *Sequencer) {
		if f > 0 {
			s.speed = f
		}
	}
}

// WithSurface sets where measurements come from.
func WithSurface(surface Surface) Option {
	return func(s *Sequencer) {
		if surface != nil {
			s.surface = surface
		}
	}
}

// WithSink sets where animation frames go.
func WithSink(sink Sink) Option {
	return func(s *Sequencer) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}
