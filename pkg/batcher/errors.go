package batcher

import (
	"errors"
	"fmt"
)

// Errors returned by New. All configuration errors wrap ErrInvalidConfig and
// can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when construction parameters are rejected.
	ErrInvalidConfig = errors.New("batcher: invalid configuration")

	// ErrInvalidCapacity is returned when capacity is not positive.
	ErrInvalidCapacity = fmt.Errorf("%w: capacity must be positive", ErrInvalidConfig)

	// ErrInvalidDelay is returned when delay is negative.
	ErrInvalidDelay = fmt.Errorf("%w: delay must not be negative", ErrInvalidConfig)

	// ErrNilConsumer is returned when no consumer is supplied.
	ErrNilConsumer = fmt.Errorf("%w: nil consumer", ErrInvalidConfig)

	// ErrConsumerPanic wraps a value recovered from a panicking consumer.
	// It is only ever logged and reported to the Recorder, never returned.
	ErrConsumerPanic = errors.New("batcher: consumer panicked")
)
