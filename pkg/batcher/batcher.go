package batcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"github.com/bft-labs/batcher/pkg/executor"
	"github.com/bft-labs/batcher/pkg/log"
)

// Consumer processes one batch. It is never called with an empty batch and,
// unless WithSerialDispatch is set, may be called concurrently with itself.
// A returned error or a panic is logged and otherwise ignored.
type Consumer[T any] func(batch []T) error

// Batcher queues items until capacity is reached or the delay elapses, then
// passes them in order to the consumer, at most capacity items at a time.
//
// Instances must be created with New. All methods are safe for concurrent use.
type Batcher[T any] struct {
	name     string
	capacity int
	delay    time.Duration
	consumer Consumer[T]
	exec     executor.Executor
	logger   log.Logger
	recorder Recorder
	now      func() time.Time

	// Serial delivery hands batches to the consumer in ticket order.
	serial      bool
	deliverMu   sync.Mutex
	deliverCond *sync.Cond
	serving     uint64 // protected by deliverMu

	// All further fields are protected by mu
	mu             sync.Mutex
	inbox          *deque.Deque[T]
	scheduled      bool
	scheduledDelay time.Duration
	pending        *trigger
	lastDispatch   time.Time
	nextTicket     uint64
}

// Stats is a point-in-time snapshot of a Batcher.
type Stats struct {
	Queued         int
	Scheduled      bool
	ScheduledDelay time.Duration
	LastDispatch   time.Time
}

// New creates a Batcher delivering at most capacity items per batch, waiting
// up to delay to coalesce items that arrive shortly after a dispatch.
// Returns an error wrapping ErrInvalidConfig if capacity <= 0, delay < 0 or
// consumer is nil.
func New[T any](capacity int, delay time.Duration, consumer Consumer[T], opts ...Option) (*Batcher[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidCapacity, capacity)
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w (got %s)", ErrInvalidDelay, delay)
	}
	if consumer == nil {
		return nil, ErrNilConsumer
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.exec == nil {
		o.exec = sharedPool()
	}

	b := &Batcher[T]{
		name:         o.name,
		capacity:     capacity,
		delay:        delay,
		consumer:     consumer,
		exec:         o.exec,
		logger:       o.logger,
		recorder:     o.recorder,
		now:          o.now,
		serial:       o.serial,
		inbox:        deque.New[T](),
		lastDispatch: o.now(),
	}
	b.deliverCond = sync.NewCond(&b.deliverMu)
	return b, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew[T any](capacity int, delay time.Duration, consumer Consumer[T], opts ...Option) *Batcher[T] {
	b, err := New(capacity, delay, consumer, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Capacity returns the maximum number of items per batch.
func (b *Batcher[T]) Capacity() int { return b.capacity }

// Delay returns the debounce delay.
func (b *Batcher[T]) Delay() time.Duration { return b.delay }

// Enqueue adds a single item to the queue.
func (b *Batcher[T]) Enqueue(item T) {
	b.EnqueueAll([]T{item})
}

// EnqueueAll appends items to the queue, preserving their order, and
// schedules delivery. It is a no-op if items is empty.
func (b *Batcher[T]) EnqueueAll(items []T) {
	if len(items) == 0 {
		return
	}

	b.mu.Lock()
	for _, item := range items {
		b.inbox.PushBack(item)
	}
	depth := b.inbox.Len()
	b.logger.Trace("items queued",
		log.String("batcher", b.name),
		log.Int("added", len(items)),
		log.Int("queued", depth),
	)
	b.requestTriggerLocked(b.nextDelayLocked())
	b.recorder.InboxDepth(b.name, depth)
	b.mu.Unlock()

	b.recorder.Enqueued(b.name, len(items))
}

// Flush schedules delivery of queued items (up to capacity) as soon as the
// delay policy allows. It does nothing if the queue is empty.
func (b *Batcher[T]) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inbox.Len() == 0 {
		return
	}
	b.requestTriggerLocked(b.nextDelayLocked())
}

// FlushAll cancels any pending trigger and synchronously delivers everything
// queued, ignoring capacity, until the queue is empty. It returns the number
// of items delivered. It must not be called from within the consumer.
func (b *Batcher[T]) FlushAll() int {
	delivered := 0
	for {
		b.mu.Lock()
		b.cancelTriggerLocked()
		batch, ticket := b.takeLocked(0)
		b.recorder.InboxDepth(b.name, 0)
		b.mu.Unlock()

		if len(batch) == 0 {
			return delivered
		}

		b.logger.Debug("flushing all queued items",
			log.String("batcher", b.name),
			log.Int("batch_size", len(batch)),
		)
		b.deliver(batch, ticket)
		delivered += len(batch)
	}
}

// Clear cancels any pending trigger and discards all queued items without
// delivering them. It returns the number of items discarded.
func (b *Batcher[T]) Clear() int {
	b.mu.Lock()
	b.cancelTriggerLocked()
	n := b.inbox.Len()
	b.inbox.Clear()
	b.recorder.InboxDepth(b.name, 0)
	b.mu.Unlock()

	b.logger.Trace("queue cleared",
		log.String("batcher", b.name),
		log.Int("discarded", n),
	)
	if n > 0 {
		b.recorder.Discarded(b.name, n)
	}
	return n
}

// Count returns the number of queued items.
func (b *Batcher[T]) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inbox.Len()
}

// Stats returns a snapshot of the batcher's state.
func (b *Batcher[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Queued:         b.inbox.Len(),
		Scheduled:      b.scheduled,
		ScheduledDelay: b.scheduledDelay,
		LastDispatch:   b.lastDispatch,
	}
}

// nextDelayLocked returns zero if the last dispatch is at least delay old,
// otherwise the full delay.
func (b *Batcher[T]) nextDelayLocked() time.Duration {
	elapsed := b.now().Sub(b.lastDispatch)
	if elapsed >= b.delay {
		return 0
	}
	return b.delay
}
