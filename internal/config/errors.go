package config

import "errors"

// Errors returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrUnknownBackend is wrapped together with ErrInvalidConfig.
	ErrUnknownBackend = errors.New("unknown score backend")
)
