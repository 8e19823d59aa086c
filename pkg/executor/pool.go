package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/bft-labs/batcher/pkg/log"
)

// Pool is an Executor backed by goroutines, running at most a fixed number
// of tasks at once. Deferred tasks use runtime timers and occupy no worker
// while waiting.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	logger log.Logger

	running atomic.Int64

	// mu orders Submit's wg.Add against Close's wg.Wait
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool running at most workers tasks concurrently.
// A non-positive workers value uses runtime.GOMAXPROCS(0).
func NewPool(workers int, logger log.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(workers)),
		size:   workers,
		logger: log.OrNoop(logger),
	}
}

// Size returns the maximum number of concurrently running tasks.
func (p *Pool) Size() int { return p.size }

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int { return int(p.running.Load()) }

// ScheduleAfter implements Executor.
func (p *Pool) ScheduleAfter(d time.Duration, task func()) (Handle, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	if d < 0 {
		d = 0
	}

	h := &timerHandle{}
	h.timer = time.AfterFunc(d, func() {
		if !h.fired.CompareAndSwap(false, true) {
			return
		}
		p.execute(task)
	})
	return h, nil
}

// Submit implements Executor.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			p.logger.Error("acquire worker", log.Err(err))
			return
		}
		defer p.sem.Release(1)
		p.execute(task)
	}()
	return nil
}

// Close stops accepting work and waits for submitted tasks to finish.
// Timers armed before Close still fire, but tasks they submit are rejected.
// Once Close returns nil no submitted task is still running.
// Returns ctx.Err() if ctx is done before all tasks complete.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("pool close timed out",
			log.Int64("running", p.running.Load()),
		)
		return fmt.Errorf("close pool: %w", ctx.Err())
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// execute runs task with panic recovery.
func (p *Pool) execute(task func()) {
	p.running.Add(1)
	defer p.running.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", log.Any("panic", r))
		}
	}()
	task()
}

type timerHandle struct {
	timer *time.Timer
	fired atomic.Bool
}

// Cancel implements Handle.
func (h *timerHandle) Cancel() bool {
	if !h.fired.CompareAndSwap(false, true) {
		return false
	}
	h.timer.Stop()
	return true
}
