package repository

import (
	"context"
	"sync"

	"github.com/okian/wikiline/internal/domain/model"
)

// MemoryStore keeps the encoded board in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
	cfg  settings
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{cfg: cfg}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeBoard(s.data, s.cfg.limit)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, records []model.ScoreRecord) error {
	data, err := encodeBoard(records)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
