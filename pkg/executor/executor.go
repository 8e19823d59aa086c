package executor

import (
	"errors"
	"time"
)

// Domain errors returned by executors.
var (
	// ErrPoolClosed is returned when work is scheduled on a closed Pool.
	ErrPoolClosed = errors.New("executor: pool closed")

	// ErrNilTask is returned when a nil task is scheduled.
	ErrNilTask = errors.New("executor: nil task")
)

// Handle is a cancelable reference to a deferred task.
type Handle interface {
	// Cancel prevents the task from running if it has not started yet.
	// It returns false if the task already fired or was already canceled.
	// Canceling a task that has begun running is a no-op.
	Cancel() bool
}

// Executor runs deferred and immediate tasks.
type Executor interface {
	// ScheduleAfter invokes task once d has elapsed, unless canceled first.
	ScheduleAfter(d time.Duration, task func()) (Handle, error)

	// Submit runs task as soon as a worker is available, asynchronously
	// with respect to the caller.
	Submit(task func()) error
}
