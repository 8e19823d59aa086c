// Package batcher groups items produced at high frequency into ordered
// batches for an expensive consumer, such as a network call.
//
// Items are queued with Enqueue or EnqueueAll and handed to the consumer at
// most Capacity at a time. Delivery is debounced: if the last dispatch
// finished less than Delay ago, the next one waits a full Delay, so steady
// load produces large batches; after a quiet period, queued items are
// dispatched immediately. Items beyond capacity are drained back to back
// without further delay.
//
// # Usage
//
//	b, err := batcher.New(100, 500*time.Millisecond,
//	    func(batch []Event) error {
//	        return client.Send(ctx, batch)
//	    },
//	    batcher.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	b.Enqueue(ev)
//	...
//	b.FlushAll() // on shutdown
//
// # Concurrency
//
// The consumer runs on executor workers, never while the batcher's lock is
// held. Two dispatches may overlap unless WithSerialDispatch is used.
// Consumer errors and panics are logged and never reach producers.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package batcher
