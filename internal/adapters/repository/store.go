// Package repository persists the top score board.
//
// Every backend stores the board as one JSON array under a single key, so
// boards written by one backend can be copied to another unchanged.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/wikiline/internal/domain/model"
)

// Defaults shared by all backends.
const (
	ScoreboardKey = "wikiline-scoreboard"
	DefaultLimit  = 10
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store provides read/write access to the persisted score board.
type Store interface {
	// Load returns the stored board, at most the configured limit long.
	// A board that was never saved loads as empty.
	Load(ctx context.Context) ([]model.ScoreRecord, error)

	// Save replaces the stored board.
	Save(ctx context.Context, records []model.ScoreRecord) error

	// Clear removes the stored board.
	Clear(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Open creates the Store for backend. path is the JSON file or SQLite
// database and is ignored by the memory backend.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(opts...), nil
	case BackendFile:
		if path == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingPath, backend)
		}
		return NewFileStore(path, opts...), nil
	case BackendSQLite:
		if path == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingPath, backend)
		}
		return OpenSQLite(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func encodeBoard(records []model.ScoreRecord) ([]byte, error) {
	if records == nil {
		records = []model.ScoreRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode score board: %w", err)
	}
	return data, nil
}

// decodeBoard parses a stored board and truncates it to limit.
func decodeBoard(data []byte, limit int) ([]model.ScoreRecord, error) {
	if len(data) == 0 {
		return []model.ScoreRecord{}, nil
	}
	var records []model.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if records == nil {
		records = []model.ScoreRecord{}
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
