package repository

import "errors"

// Sentinel kinds for score store errors.
var (
	ErrCorrupt        = errors.New("stored score board is corrupt")
	ErrUnknownBackend = errors.New("unknown score store backend")
	ErrMissingPath    = errors.New("score store path is required")
)
