package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/wikiline/internal/adapters/http/api"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
)

const maxResponseBytes = 1 << 20

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
}

// Client talks to the game API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers its probe.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// State fetches the round snapshot.
func (c *Client) State(ctx context.Context) (round.Snapshot, error) {
	var snap round.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &snap)
	return snap, err
}

// Reset asks for a fresh deck and round.
func (c *Client) Reset(ctx context.Context) (round.Snapshot, error) {
	var snap round.Snapshot
	err := c.do(ctx, http.MethodPost, "/api/game/reset", nil, &snap)
	return snap, err
}

// Drop places the current card at position.
func (c *Client) Drop(ctx context.Context, position int) (api.DropResponse, error) {
	var resp api.DropResponse
	err := c.do(ctx, http.MethodPost, "/api/game/drop", api.DropRequest{Position: &position}, &resp)
	return resp, err
}

// Scores fetches the score board.
func (c *Client) Scores(ctx context.Context) ([]model.ScoreRecord, error) {
	var resp api.ScoresResponse
	err := c.do(ctx, http.MethodGet, "/api/scores", nil, &resp)
	return resp.Scores, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		se := &StatusError{Method: method, Path: path, Status: resp.StatusCode}
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil {
			se.Code, se.Message = e.Code, e.Message
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
