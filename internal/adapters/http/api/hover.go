package api

import (
	"errors"
	"net/http"

	"github.com/okian/wikiline/internal/domain/geometry"
)

// RailHoverRequest resolves a pointer over the compact year rail. The rail
// is measured by the caller so no server state is involved.
type RailHoverRequest struct {
	Point geometry.Point `json:"point"`
	Rail  geometry.Rect  `json:"rail"`
	Count int            `json:"count"`
}

func (r RailHoverRequest) validate() error {
	switch {
	case r.Count < 0:
		return errors.New("count must not be negative")
	case r.Rail.Bottom < r.Rail.Top || r.Rail.Right < r.Rail.Left:
		return errors.New("rail must have non-negative size")
	}
	return nil
}

// TimelineHoverRequest resolves a pointer over the card list.
type TimelineHoverRequest struct {
	Point     geometry.Point `json:"point"`
	ScrollTop float64        `json:"scrollTop"`
}

// HoverResponse is the insertion target under the pointer. Over is false
// when the pointer is off the surface, in which case Index is meaningless.
type HoverResponse struct {
	Over  bool    `json:"over"`
	Index int     `json:"index"`
	TopPx float64 `json:"topPx,omitempty"`
}

// HoverHandler serves pointer resolution and layout routes.
type HoverHandler struct {
	deps LayoutDependencies
}

// NewHoverHandler creates a new hover handler.
func NewHoverHandler(deps LayoutDependencies) *HoverHandler {
	return &HoverHandler{deps: deps}
}

// HandleRail handles POST /api/hover/rail.
func (h *HoverHandler) HandleRail(w http.ResponseWriter, r *http.Request) {
	const op = "hover rail"
	var req RailHoverRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	idx, over := geometry.RailHoverIndex(req.Point, req.Rail, req.Count)
	writeJSON(w, http.StatusOK, HoverResponse{Over: over, Index: idx})
}

// HandleTimeline handles POST /api/hover/timeline.
func (h *HoverHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "hover timeline"
	var req TimelineHoverRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.ScrollTop < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	hover, over, err := h.deps.HoverTimeline(r.Context(), req.Point, req.ScrollTop)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, HoverResponse{Over: over, Index: hover.Index, TopPx: hover.TopPx})
}

// HandleGetLayout handles GET /api/layout.
func (h *HoverHandler) HandleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := h.deps.Layout(r.Context())
	if err != nil {
		writeServiceError(w, "layout", err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// HandlePutLayout handles PUT /api/layout.
func (h *HoverHandler) HandlePutLayout(w http.ResponseWriter, r *http.Request) {
	const op = "set layout"
	var l geometry.StackLayout
	if err := decodeBody(w, r, &l); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetLayout(r.Context(), l); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
