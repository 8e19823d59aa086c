package batcher

import "time"

// Recorder receives batcher activity, e.g. to export metrics.
// Implementations must be safe for concurrent use and must not block.
type Recorder interface {
	// Enqueued reports n items added to the inbox.
	Enqueued(name string, n int)

	// InboxDepth reports the inbox length after a change. It is called with
	// the batcher's lock held and must not call back into the Batcher.
	InboxDepth(name string, depth int)

	// Dispatched reports a delivered batch and how long the consumer took.
	Dispatched(name string, size int, took time.Duration)

	// ConsumerFailed reports a consumer error or panic.
	ConsumerFailed(name string)

	// Discarded reports n items dropped by Clear.
	Discarded(name string, n int)
}

type nopRecorder struct{}

func (nopRecorder) Enqueued(string, int)                  {}
func (nopRecorder) InboxDepth(string, int)                {}
func (nopRecorder) Dispatched(string, int, time.Duration) {}
func (nopRecorder) ConsumerFailed(string)                 {}
func (nopRecorder) Discarded(string, int)                 {}
