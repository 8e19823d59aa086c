// Package executor provides the work substrate used by the batcher: a way to
// run a task after a delay, cancelably, and a way to run a task as soon as a
// worker is free.
//
// # Implementations
//
//   - [Pool]: goroutine-backed, bounded by a weighted semaphore. Deferred
//     tasks run on the runtime timer goroutine and should only hand work off
//     via Submit.
//   - [Manual]: virtual clock, for deterministic tests. Time moves only when
//     Advance is called.
//
// # Usage
//
//	pool := executor.NewPool(8, logger)
//	defer pool.Close(ctx)
//
//	h, err := pool.ScheduleAfter(500*time.Millisecond, func() {
//	    _ = pool.Submit(work)
//	})
//	...
//	h.Cancel()
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package executor
