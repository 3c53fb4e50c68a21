package wikipedia

import (
	"net/http"
	"time"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the REST root, e.g. https://en.wikipedia.org/api/rest_v1.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets the client used for feed requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single feed request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithEventLimits sets how many events a deck keeps and how many it needs.
func WithEventLimits(maxEvents, minEvents int) Option {
	return func(c *Client) {
		if minEvents > 0 && maxEvents >= minEvents {
			c.maxEvents = maxEvents
			c.minEvents = minEvents
		}
	}
}

// WithRetryWait sets the pause between attempts.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryWait = d
		}
	}
}

// WithDatePicker replaces the random month and day choice.
func WithDatePicker(pick func() (month, day int)) Option {
	return func(c *Client) {
		if pick != nil {
			c.pickDate = pick
		}
	}
}

// WithShuffle replaces the shuffle applied before the deck is truncated.
func WithShuffle(shuffle func([]model.EventRecord)) Option {
	return func(c *Client) {
		if shuffle != nil {
			c.shuffle = shuffle
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
