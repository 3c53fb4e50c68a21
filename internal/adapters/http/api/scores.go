package api

import (
	"net/http"

	"github.com/okian/wikiline/internal/domain/model"
)

// ScoresResponse lists the best finished rounds.
type ScoresResponse struct {
	Scores []model.ScoreRecord `json:"scores"`
}

// ScoresHandler serves the score board.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleGetScores handles GET /api/scores.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	board, err := h.deps.Scores(r.Context())
	if err != nil {
		writeServiceError(w, "scores", err)
		return
	}
	if board == nil {
		board = []model.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, ScoresResponse{Scores: board})
}

// HandleClearScores handles DELETE /api/scores.
func (h *ScoresHandler) HandleClearScores(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearScores(r.Context()); err != nil {
		writeServiceError(w, "clear scores", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
