package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/pkg/logger"
)

// FileStore keeps the board in a JSON file. Writes go to a temporary file
// that is renamed over the old one.
type FileStore struct {
	mu   sync.Mutex
	path string
	cfg  settings
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore at path. The file is created on first Save.
func NewFileStore(path string, opts ...Option) *FileStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{path: path, cfg: cfg}
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) ([]model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.ScoreRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	records, err := decodeBoard(data, s.cfg.limit)
	if err != nil {
		s.cfg.logger.Warn(ctx, "score file is corrupt", logger.String("path", s.path), logger.Error(err))
		return nil, err
	}
	return records, nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, records []model.ScoreRecord) error {
	data, err := encodeBoard(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", s.path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", s.path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	s.cfg.logger.Debug(ctx, "score board saved", logger.String("path", s.path), logger.Int("records", len(records)))
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
