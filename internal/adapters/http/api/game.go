package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/wikiline/internal/domain/geometry"
	"github.com/okian/wikiline/internal/domain/round"
)

// DropRequest places the current card. Exactly one of Position or Point
// must be set. ScrollTop only applies with Point.
type DropRequest struct {
	Position  *int            `json:"position,omitempty"`
	Point     *geometry.Point `json:"point,omitempty"`
	ScrollTop float64         `json:"scrollTop,omitempty"`
}

func (r DropRequest) validate() error {
	switch {
	case r.Position == nil && r.Point == nil:
		return errors.New("one of position or point is required")
	case r.Position != nil && r.Point != nil:
		return errors.New("position and point are mutually exclusive")
	case r.Position != nil && *r.Position < 0:
		return errors.New("position must not be negative")
	case r.ScrollTop < 0:
		return errors.New("scrollTop must not be negative")
	}
	return nil
}

// DropResponse reports the outcome of a drop.
type DropResponse struct {
	Placement round.Placement `json:"placement"`
	Hover     *geometry.Hover `json:"hover,omitempty"`
	State     round.Snapshot  `json:"state"`
}

// MoveRequest reorders placed cards.
type MoveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (r MoveRequest) validate() error {
	if r.From == nil || r.To == nil {
		return errors.New("from and to are required")
	}
	return nil
}

// MoveResponse reports whether the move applied.
type MoveResponse struct {
	Moved bool           `json:"moved"`
	State round.Snapshot `json:"state"`
}

// GameHandler serves round lifecycle and placement routes.
type GameHandler struct {
	deps GameDependencies
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps GameDependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

// HandleState handles GET /api/state.
func (h *GameHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, "state", h.deps.State)
}

// HandleStart handles POST /api/game/start.
func (h *GameHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, "start", h.deps.StartGame)
}

// HandleDemo handles POST /api/game/demo.
func (h *GameHandler) HandleDemo(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, "demo", h.deps.StartDemo)
}

// HandleEndDemo handles POST /api/game/demo/stop.
func (h *GameHandler) HandleEndDemo(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, "end demo", h.deps.EndDemo)
}

// HandleReset handles POST /api/game/reset.
func (h *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.snapshot(w, r, "reset", h.deps.Reset)
}

// HandleDrop handles POST /api/game/drop.
func (h *GameHandler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	const op = "drop"
	var req DropRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var resp DropResponse
	if req.Position != nil {
		p, err := h.deps.Drop(r.Context(), *req.Position)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		resp.Placement = p
	} else {
		p, hover, err := h.deps.DropAtPoint(r.Context(), *req.Point, req.ScrollTop)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		resp.Placement = p
		resp.Hover = &hover
	}

	state, err := h.deps.State(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp.State = state
	writeJSON(w, http.StatusOK, resp)
}

// HandleMove handles POST /api/game/move.
func (h *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	const op = "move"
	var req MoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	moved, err := h.deps.MoveSlot(r.Context(), *req.From, *req.To)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	state, err := h.deps.State(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Moved: moved, State: state})
}

func (h *GameHandler) snapshot(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context) (round.Snapshot, error)) {
	snap, err := fn(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
