package batcher_test

import (
	"fmt"
	"time"

	"github.com/bft-labs/batcher/pkg/batcher"
	"github.com/bft-labs/batcher/pkg/executor"
)

// Demonstrates burst coalescing: 25 items queued at once are delivered as
// three back-to-back batches once the debounce delay has elapsed.
func ExampleBatcher() {
	clock := executor.NewManual(time.Unix(0, 0))

	b, err := batcher.New(10, 500*time.Millisecond,
		func(batch []int) error {
			fmt.Printf("t=%v %v\n", clock.Now().Sub(time.Unix(0, 0)), batch)
			return nil
		},
		batcher.WithExecutor(clock),
		batcher.WithClock(clock.Now),
	)
	if err != nil {
		panic(err)
	}

	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}
	b.EnqueueAll(items)

	clock.Advance(time.Second)

	// Output:
	// t=500ms [1 2 3 4 5 6 7 8 9 10]
	// t=500ms [11 12 13 14 15 16 17 18 19 20]
	// t=500ms [21 22 23 24 25]
}

// Demonstrates draining everything synchronously, e.g. on shutdown.
func ExampleBatcher_FlushAll() {
	b := batcher.MustNew(2, time.Hour, func(batch []string) error {
		fmt.Println(batch)
		return nil
	})

	b.EnqueueAll([]string{"a", "b", "c"})
	fmt.Println("delivered:", b.FlushAll())

	// Output:
	// [a b c]
	// delivered: 3
}
