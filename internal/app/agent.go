package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bft-labs/batcher/internal/domain"
	"github.com/bft-labs/batcher/internal/ports"
	"github.com/bft-labs/batcher/internal/watch"
	"github.com/bft-labs/batcher/pkg/batcher"
	"github.com/bft-labs/batcher/pkg/executor"
	"github.com/bft-labs/batcher/pkg/log"
)

// AgentConfig contains configuration for the agent.
type AgentConfig struct {
	WatchDirs []string
	Patterns  []string

	Capacity       int
	Delay          time.Duration
	Workers        int
	SerialDispatch bool

	MaxRetries int
	RetryBase  time.Duration
	RetryMax   time.Duration

	StatusInterval  time.Duration
	ShutdownTimeout time.Duration
}

// Stats summarizes agent activity.
type Stats struct {
	State         State
	Batcher       batcher.Stats
	BatchesSent   uint64
	BatchesFailed uint64
	EventsSent    uint64
}

// Agent watches directories, batches change events and ships each batch
// through a BatchSender.
type Agent struct {
	config    AgentConfig
	sender    ports.BatchSender
	logger    ports.Logger
	lifecycle *Lifecycle
	pool      *executor.Pool
	batcher   *batcher.Batcher[domain.ChangeEvent]
	now       func() time.Time

	// sendCtx outlives the run context so that Stop can drain the queue.
	sendCtx    context.Context
	sendCancel context.CancelFunc

	stopped       atomic.Bool
	batchesSent   atomic.Uint64
	batchesFailed atomic.Uint64
	eventsSent    atomic.Uint64
}

// NewAgent creates an agent. recorder may be nil.
func NewAgent(config AgentConfig, sender ports.BatchSender, logger ports.Logger, recorder batcher.Recorder) (*Agent, error) {
	logger = log.OrNoop(logger)
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = ShutdownTimeout
	}

	a := &Agent{
		config:    config,
		sender:    sender,
		logger:    logger,
		lifecycle: NewLifecycle(logger, nil),
		pool:      executor.NewPool(config.Workers, logger),
		now:       time.Now,
	}
	a.sendCtx, a.sendCancel = context.WithCancel(context.Background())

	opts := []batcher.Option{
		batcher.WithName("changes"),
		batcher.WithExecutor(a.pool),
		batcher.WithLogger(logger),
		batcher.WithRecorder(recorder),
	}
	if config.SerialDispatch {
		opts = append(opts, batcher.WithSerialDispatch())
	}

	b, err := batcher.New(config.Capacity, config.Delay, a.ship, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	a.batcher = b
	return a, nil
}

// ErrAgentStopped is returned by Start after the agent has been stopped.
// An Agent releases its worker pool on Stop and cannot be restarted.
var ErrAgentStopped = errors.New("app: agent stopped")

// Start begins watching and returns once watches are in place.
func (a *Agent) Start(ctx context.Context) error {
	if a.stopped.Load() {
		return ErrAgentStopped
	}
	if !a.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := a.lifecycle.TransitionTo(StateStarting, "start requested"); err != nil {
		return err
	}

	w, err := watch.New(a.config.WatchDirs, a.config.Patterns, a.batcher.Enqueue, a.logger)
	if err != nil {
		_ = a.lifecycle.TransitionTo(StateCrashed, err.Error())
		return fmt.Errorf("start watcher: %w", err)
	}

	runCtx := a.lifecycle.Begin(ctx)
	a.lifecycle.Go(func() error { return w.Run(runCtx) })
	if a.config.StatusInterval > 0 {
		a.lifecycle.Go(func() error { return a.reportStatus(runCtx) })
	}

	a.logger.Info("agent started",
		log.Any("watch_dirs", a.config.WatchDirs),
		log.Int("capacity", a.config.Capacity),
		log.Duration("delay", a.config.Delay),
		log.Int("workers", a.pool.Size()),
	)
	return a.lifecycle.TransitionTo(StateRunning, "watchers ready")
}

// Stop stops watching, delivers everything still queued and waits for
// in-flight sends up to the shutdown timeout.
func (a *Agent) Stop() error {
	if !a.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := a.lifecycle.TransitionTo(StateStopping, "stop requested"); err != nil {
		return err
	}

	a.stopped.Store(true)
	a.lifecycle.Cancel()
	waitErr := a.lifecycle.WaitWithTimeout(a.config.ShutdownTimeout)

	drained := a.batcher.FlushAll()
	a.logger.Info("drained queue", log.Int("events", drained))

	ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()
	closeErr := a.pool.Close(ctx)

	a.sendCancel()

	sendErr := a.sender.Close()

	if err := errors.Join(waitErr, closeErr, sendErr); err != nil {
		_ = a.lifecycle.TransitionTo(StateCrashed, err.Error())
		if errors.Is(closeErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", domain.ErrShutdownTimeout, err)
		}
		return err
	}
	return a.lifecycle.TransitionTo(StateStopped, "shutdown complete")
}

// Status returns the current lifecycle state.
func (a *Agent) Status() State {
	return a.lifecycle.State()
}

// Stats returns a snapshot of agent activity.
func (a *Agent) Stats() Stats {
	return Stats{
		State:         a.lifecycle.State(),
		Batcher:       a.batcher.Stats(),
		BatchesSent:   a.batchesSent.Load(),
		BatchesFailed: a.batchesFailed.Load(),
		EventsSent:    a.eventsSent.Load(),
	}
}

// ship is the batcher consumer. It retries failed sends with backoff and
// drops the batch after MaxRetries retries.
func (a *Agent) ship(events []domain.ChangeEvent) error {
	ctx := a.sendCtx
	batch := domain.NewBatch(events, a.now())
	bo := newBackoff(a.config.RetryBase, a.config.RetryMax)

	for attempt := 0; ; attempt++ {
		err := a.sender.Send(ctx, batch)
		if err == nil {
			a.batchesSent.Add(1)
			a.eventsSent.Add(uint64(batch.Size()))
			return nil
		}

		if attempt >= a.config.MaxRetries || errors.Is(err, domain.ErrEmptyBatch) {
			a.batchesFailed.Add(1)
			return fmt.Errorf("send batch %s after %d attempts: %w", batch.ID, attempt+1, err)
		}

		a.logger.Warn("send failed, retrying",
			log.String("batch_id", batch.ID),
			log.Int("attempt", attempt+1),
			log.Duration("backoff", bo.Current()),
			log.Err(err),
		)
		if werr := bo.Wait(ctx); werr != nil {
			a.batchesFailed.Add(1)
			return fmt.Errorf("send batch %s: %w", batch.ID, errors.Join(err, werr))
		}
	}
}

func (a *Agent) reportStatus(ctx context.Context) error {
	ticker := time.NewTicker(a.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := a.Stats()
			a.logger.Info("status",
				log.Int("queued", s.Batcher.Queued),
				log.Bool("scheduled", s.Batcher.Scheduled),
				log.Time("last_dispatch", s.Batcher.LastDispatch),
				log.Uint64("batches_sent", s.BatchesSent),
				log.Uint64("batches_failed", s.BatchesFailed),
				log.Uint64("events_sent", s.EventsSent),
				log.Int("busy_workers", a.pool.Running()),
			)
		}
	}
}
