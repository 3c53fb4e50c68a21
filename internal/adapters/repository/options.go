package repository

import "github.com/okian/wikiline/pkg/logger"

type settings struct {
	limit  int
	key    string
	logger logger.Logger
}

func defaultSettings() settings {
	return settings{
		limit:  DefaultLimit,
		key:    ScoreboardKey,
		logger: logger.Get().Named("repository"),
	}
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithLimit sets how many records Load returns at most.
func WithLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithKey sets the key the board is stored under in key-value backends.
func WithKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
