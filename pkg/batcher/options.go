package batcher

import (
	"sync"
	"time"

	"github.com/bft-labs/batcher/pkg/executor"
	"github.com/bft-labs/batcher/pkg/log"
)

// Option configures optional behavior of a Batcher.
type Option func(*options)

// options holds the optional configuration for a Batcher.
type options struct {
	name     string
	exec     executor.Executor
	logger   log.Logger
	recorder Recorder
	now      func() time.Time
	serial   bool
}

// sharedPool is used by every Batcher constructed without WithExecutor.
var sharedPool = sync.OnceValue(func() *executor.Pool {
	return executor.NewPool(0, nil)
})

func defaultOptions() options {
	return options{
		name:     "batcher",
		logger:   log.NoopLogger{},
		recorder: nopRecorder{},
		now:      time.Now,
	}
}

// WithName sets the name used in log fields and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithExecutor sets the work substrate that runs triggers and dispatches.
// The executor must run tasks on goroutines other than the caller's.
// If not provided, a process-wide executor.Pool sized to GOMAXPROCS is used.
func WithExecutor(exec executor.Executor) Option {
	return func(o *options) {
		o.exec = exec
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithRecorder sets the sink for batcher activity.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock overrides the time source used by the delay policy.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSerialDispatch guarantees that at most one consumer invocation runs at
// any time and that batches reach the consumer in the order they were taken
// from the queue. Without it, a leftover-drain dispatch may overlap a
// dispatch started by a newly armed trigger.
func WithSerialDispatch() Option {
	return func(o *options) {
		o.serial = true
	}
}
