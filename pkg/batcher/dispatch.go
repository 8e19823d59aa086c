package batcher

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/bft-labs/batcher/pkg/log"
)

// dispatch delivers up to capacity items for a fired trigger. Leftover items
// are drained by re-arming with zero delay.
func (b *Batcher[T]) dispatch(t *trigger) {
	b.mu.Lock()
	if t.canceled.Load() || b.pending != t {
		b.mu.Unlock()
		b.logger.Trace("stale trigger ignored", log.String("batcher", b.name))
		return
	}
	b.scheduled = false
	b.pending = nil

	batch, ticket := b.takeLocked(b.capacity)
	remaining := b.inbox.Len()
	if remaining > 0 {
		b.logger.Debug("inbox exceeds capacity, draining remainder",
			log.String("batcher", b.name),
			log.Int("batch_size", len(batch)),
			log.Int("remaining", remaining),
		)
		b.requestTriggerLocked(0)
	}
	if len(batch) > 0 {
		b.recorder.InboxDepth(b.name, remaining)
	}
	b.mu.Unlock()

	if len(batch) == 0 {
		b.logger.Trace("nothing to dispatch", log.String("batcher", b.name))
		return
	}
	b.deliver(batch, ticket)
}

// takeLocked removes and returns up to limit items from the front of the
// inbox. A limit of zero takes everything. A non-empty batch gets the next
// delivery ticket.
func (b *Batcher[T]) takeLocked(limit int) ([]T, uint64) {
	n := b.inbox.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	if n == 0 {
		return nil, 0
	}

	batch := make([]T, n)
	for i := range batch {
		batch[i] = b.inbox.PopFront()
	}
	ticket := b.nextTicket
	b.nextTicket++
	return batch, ticket
}

// deliver invokes the consumer without holding mu, then records the dispatch
// time. In serial mode it first waits until every batch with a lower ticket
// has been delivered.
func (b *Batcher[T]) deliver(batch []T, ticket uint64) {
	if b.serial {
		b.deliverMu.Lock()
		for b.serving != ticket {
			b.deliverCond.Wait()
		}
		defer func() {
			b.serving++
			b.deliverCond.Broadcast()
			b.deliverMu.Unlock()
		}()
	}

	b.logger.Trace("invoking consumer",
		log.String("batcher", b.name),
		log.Int("batch_size", len(batch)),
	)

	start := b.now()
	err := b.invoke(batch)
	finished := b.now()
	took := finished.Sub(start)

	if err != nil {
		fields := []log.Field{
			log.String("batcher", b.name),
			log.Int("batch_size", len(batch)),
			log.Duration("took", took),
			log.Err(err),
		}
		var pe *panicError
		if errors.As(err, &pe) {
			fields = append(fields, log.String("stack", string(pe.stack)))
		}
		b.logger.Error("consumer failed", fields...)
		b.recorder.ConsumerFailed(b.name)
	}
	b.recorder.Dispatched(b.name, len(batch), took)

	b.mu.Lock()
	b.lastDispatch = finished
	b.mu.Unlock()
}

func (b *Batcher[T]) invoke(batch []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return b.consumer(batch)
}

// panicError carries a value recovered from the consumer together with the
// goroutine stack at the point of the panic.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrConsumerPanic, e.value)
}

func (e *panicError) Unwrap() error { return ErrConsumerPanic }
