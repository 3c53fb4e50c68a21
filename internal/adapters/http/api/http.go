// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/wikiline/internal/adapters/realtime"
	service "github.com/okian/wikiline/internal/app"
	"github.com/okian/wikiline/internal/domain/geometry"
	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/internal/domain/round"
	"github.com/okian/wikiline/pkg/logger"
)

const (
	requestTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 10
)

// GameDependencies drive the round.
type GameDependencies interface {
	State(ctx context.Context) (round.Snapshot, error)
	StartGame(ctx context.Context) (round.Snapshot, error)
	StartDemo(ctx context.Context) (round.Snapshot, error)
	EndDemo(ctx context.Context) (round.Snapshot, error)
	Reset(ctx context.Context) (round.Snapshot, error)
	Drop(ctx context.Context, position int) (round.Placement, error)
	DropAtPoint(ctx context.Context, pt geometry.Point, scrollTop float64) (round.Placement, geometry.Hover, error)
	MoveSlot(ctx context.Context, from, to int) (bool, error)
}

// LayoutDependencies resolve pointer positions against the reported layout.
type LayoutDependencies interface {
	HoverTimeline(ctx context.Context, pt geometry.Point, scrollTop float64) (geometry.Hover, bool, error)
	SetLayout(ctx context.Context, l geometry.StackLayout) error
	Layout(ctx context.Context) (geometry.StackLayout, error)
}

// ScoreDependencies read and clear the score board.
type ScoreDependencies interface {
	Scores(ctx context.Context) ([]model.ScoreRecord, error)
	ClearScores(ctx context.Context) error
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GameDependencies
	LayoutDependencies
	ScoreDependencies
	StatsProvider
}

// Subscriber is the stream hub.
type Subscriber interface {
	Subscribe() chan realtime.Message
	Unsubscribe(ch chan realtime.Message)
}

// Server wires HTTP routes for the game API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	gameHandler   *GameHandler
	hoverHandler  *HoverHandler
	scoresHandler *ScoresHandler
	streamHandler *StreamHandler
	logger        logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, hub Subscriber) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		gameHandler:   NewGameHandler(deps),
		hoverHandler:  NewHoverHandler(deps),
		scoresHandler: NewScoresHandler(deps),
		streamHandler: NewStreamHandler(deps, hub),
		logger:        logger.Get().Named("http"),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/api", func(r chi.Router) {
		// The stream stays open; everything else is bounded.
		r.Get("/stream", s.streamHandler.HandleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(middleware.AllowContentType("application/json"))

			r.Get("/state", s.gameHandler.HandleState)
			r.Route("/game", func(r chi.Router) {
				r.Post("/start", s.gameHandler.HandleStart)
				r.Post("/demo", s.gameHandler.HandleDemo)
				r.Post("/demo/stop", s.gameHandler.HandleEndDemo)
				r.Post("/reset", s.gameHandler.HandleReset)
				r.Post("/drop", s.gameHandler.HandleDrop)
				r.Post("/move", s.gameHandler.HandleMove)
			})
			r.Route("/hover", func(r chi.Router) {
				r.Post("/rail", s.hoverHandler.HandleRail)
				r.Post("/timeline", s.hoverHandler.HandleTimeline)
			})
			r.Get("/layout", s.hoverHandler.HandleGetLayout)
			r.Put("/layout", s.hoverHandler.HandlePutLayout)
			r.Get("/scores", s.scoresHandler.HandleGetScores)
			r.Delete("/scores", s.scoresHandler.HandleClearScores)
		})
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service failures onto statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, service.ErrNoCard):
		writeError(w, http.StatusConflict, "no_card", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrInvalidLayout):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "timeout", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decodeBody decodes a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
