package batcher

import (
	"sync/atomic"
	"time"

	"github.com/bft-labs/batcher/pkg/executor"
	"github.com/bft-labs/batcher/pkg/log"
)

// trigger is one armed deferred dispatch.
type trigger struct {
	delay    time.Duration
	handle   executor.Handle // protected by Batcher.mu
	canceled atomic.Bool
}

// requestTriggerLocked arms a trigger firing after d. An armed trigger with a
// longer delay is replaced; one with an equal or shorter delay is kept.
func (b *Batcher[T]) requestTriggerLocked(d time.Duration) {
	if b.scheduled && d < b.scheduledDelay {
		b.logger.Trace("preempting armed trigger",
			log.String("batcher", b.name),
			log.Duration("armed_delay", b.scheduledDelay),
			log.Duration("delay", d),
		)
		b.cancelTriggerLocked()
	}
	if b.scheduled {
		return
	}

	t := &trigger{delay: d}
	b.scheduled = true
	b.scheduledDelay = d
	b.pending = t

	h, err := b.exec.ScheduleAfter(d, func() { b.fire(t) })
	if err != nil {
		b.scheduled = false
		b.pending = nil
		b.logger.Error("failed to arm trigger",
			log.String("batcher", b.name),
			log.Duration("delay", d),
			log.Err(err),
		)
		return
	}
	t.handle = h

	b.logger.Trace("trigger armed",
		log.String("batcher", b.name),
		log.Duration("delay", d),
	)
}

// cancelTriggerLocked disarms the pending trigger, if any. A trigger that has
// already fired observes its canceled flag and does nothing.
func (b *Batcher[T]) cancelTriggerLocked() {
	b.scheduled = false
	t := b.pending
	b.pending = nil
	if t == nil {
		return
	}

	t.canceled.Store(true)
	if t.handle != nil && !t.handle.Cancel() {
		b.logger.Trace("trigger already fired",
			log.String("batcher", b.name),
			log.Duration("delay", t.delay),
		)
	}
}

// fire runs when a trigger's delay has elapsed and hands the dispatch to a
// worker.
func (b *Batcher[T]) fire(t *trigger) {
	if t.canceled.Load() {
		return
	}

	if err := b.exec.Submit(func() { b.dispatch(t) }); err != nil {
		b.logger.Error("failed to submit dispatch",
			log.String("batcher", b.name),
			log.Err(err),
		)
		b.mu.Lock()
		if b.pending == t {
			b.scheduled = false
			b.pending = nil
		}
		b.mu.Unlock()
	}
}
