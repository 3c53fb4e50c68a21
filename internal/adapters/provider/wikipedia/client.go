// Package wikipedia loads game decks from the Wikipedia "on this day" feed.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/okian/wikiline/internal/domain/dedupe"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/pkg/logger"
	"github.com/okian/wikiline/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultBaseURL   = "https://en.wikipedia.org/api/rest_v1"
	defaultTimeout   = 5 * time.Second
	defaultMaxEvents = 10
	defaultMinEvents = 5
	defaultRetryWait = 500 * time.Millisecond
	maxBodyBytes     = 8 << 20
	userAgent        = "wikiline/1.0 (chronology game)"
)

// Client fetches events from the feed. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxEvents  int
	minEvents  int
	retryWait  time.Duration
	pickDate   func() (month, day int)
	shuffle    func([]model.EventRecord)
	logger     logger.Logger
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
		maxEvents:  defaultMaxEvents,
		minEvents:  defaultMinEvents,
		retryWait:  defaultRetryWait,
		pickDate:   randomDate,
		shuffle:    shuffle,
		logger:     logger.Get().Named("wikipedia"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchEvents makes up to maxAttempts requests for a random calendar day and
// returns between minEvents and maxEvents shuffled records with unique
// titles. When every attempt fails the error of the last attempt is returned.
func (c *Client) FetchEvents(ctx context.Context, maxAttempts int) ([]model.EventRecord, error) {
	maxAttempts = max(1, maxAttempts)
	var lastErr error
	attempt := 0

	op := func() ([]model.EventRecord, error) {
		attempt++
		events, err := c.fetchOnce(ctx)
		if err != nil {
			lastErr = err
			return nil, err
		}
		return events, nil
	}

	events, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryWait)),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn(ctx, "feed attempt failed, retrying",
				logger.Int("attempt", attempt),
				logger.Int("max_attempts", maxAttempts),
				logger.Duration("wait", wait),
				logger.Error(err),
			)
		}),
	)
	if err != nil {
		if lastErr != nil {
			err = lastErr
		}
		metrics.RecordFetchFailure(failureReason(err))
		c.logger.Error(ctx, "loading events failed",
			logger.Int("attempts", attempt),
			logger.Error(err),
		)
		return nil, err
	}
	return events, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]model.EventRecord, error) {
	month, day := c.pickDate()
	url := fmt.Sprintf("%s/feed/onthisday/events/%d/%d", c.baseURL, month, day)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetchAttempt("error", latency)
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordFetchAttempt("bad_status", latency)
		return nil, model.NewBadResponse(resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordFetchAttempt("error", latency)
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	events := c.choose(ctx, parseEvents(body))
	if len(events) < c.minEvents {
		metrics.RecordFetchAttempt("not_enough", latency)
		return nil, model.NewNotEnough(url)
	}

	metrics.RecordFetchAttempt("ok", latency)
	c.logger.Debug(ctx, "feed loaded",
		logger.String("url", url),
		logger.Int("events", len(events)),
		logger.Float64("latency_ms", latency),
	)
	return events, nil
}

// choose drops repeated titles, keeping the first, then shuffles and keeps
// at most maxEvents.
func (c *Client) choose(ctx context.Context, candidates []model.EventRecord) []model.EventRecord {
	seen := dedupe.NewSet()
	uniq := make([]model.EventRecord, 0, len(candidates))
	for _, ev := range candidates {
		if seen.SeenAndRecord(ev.Title) {
			continue
		}
		uniq = append(uniq, ev)
	}
	if dropped := len(candidates) - seen.Size(); dropped > 0 {
		c.logger.Debug(ctx, "dropped repeated titles", logger.Int("dropped", dropped))
	}
	c.shuffle(uniq)
	if len(uniq) > c.maxEvents {
		uniq = uniq[:c.maxEvents]
	}
	return uniq
}

func failureReason(err error) string {
	var le *model.LoadError
	switch {
	case errors.As(err, &le) && le.Message == model.MsgBadResponse:
		return "bad_status"
	case errors.As(err, &le) && le.Message == model.MsgNotEnough:
		return "not_enough"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}

func randomDate() (month, day int) {
	return rand.IntN(12) + 1, rand.IntN(28) + 1
}

func shuffle(events []model.EventRecord) {
	rand.Shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})
}
