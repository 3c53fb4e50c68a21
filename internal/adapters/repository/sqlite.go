package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/okian/wikiline/internal/domain/model"
	"github.com/okian/wikiline/pkg/logger"
)

// SQLiteStore keeps the board in a key-value table of a SQLite database.
type SQLiteStore struct {
	conn *sqlx.DB
	cfg  settings
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates a SQLite database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, cfg: cfg}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg.logger.Info(ctx, "sqlite score store opened", logger.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	return err
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.ScoreRecord, error) {
	var value string
	err := s.conn.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", s.cfg.key)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.ScoreRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.cfg.key, err)
	}
	return decodeBoard([]byte(value), s.cfg.limit)
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, records []model.ScoreRecord) error {
	data, err := encodeBoard(records)
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", s.cfg.key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", s.cfg.key, err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", s.cfg.key); err != nil {
		return fmt.Errorf("clear %s: %w", s.cfg.key, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
