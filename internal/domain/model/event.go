// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// EventRecord is one historical event as presented on a card.
// Records are immutable once fetched.
type EventRecord struct {
	Year      int    `json:"year"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Key returns the placement key "<year>-<title>" used by the feedback sets.
func (e EventRecord) Key() string {
	return strconv.Itoa(e.Year) + "-" + e.Title
}

// ScoreRecord summarises one completed round.
type ScoreRecord struct {
	Score      int       `json:"score"`
	ElapsedMs  int64     `json:"elapsedMs"`
	Correct    int       `json:"correct"`
	Attempts   int       `json:"attempts"`
	BestStreak int       `json:"bestStreak"`
	FinishedAt time.Time `json:"finishedAt"`
}
