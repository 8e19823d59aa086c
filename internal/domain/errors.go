package domain

import "errors"

// Domain errors can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running agent.
	ErrAlreadyRunning = errors.New("batchship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped agent.
	ErrNotRunning = errors.New("batchship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("batchship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("batchship: invalid configuration")

	// ErrEmptyBatch is returned when a sender is handed a batch without events.
	ErrEmptyBatch = errors.New("batchship: empty batch")
)
