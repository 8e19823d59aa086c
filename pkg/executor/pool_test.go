package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool_DefaultSize(t *testing.T) {
	if p := NewPool(0, nil); p.Size() <= 0 {
		t.Errorf("NewPool(0).Size() = %d, want > 0", p.Size())
	}
	if p := NewPool(3, nil); p.Size() != 3 {
		t.Errorf("NewPool(3).Size() = %d, want 3", p.Size())
	}
}

func TestPool_SubmitRuns(t *testing.T) {
	p := NewPool(2, nil)

	var wg sync.WaitGroup
	var count atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	wg.Wait()

	if got := count.Load(); got != 20 {
		t.Errorf("ran %d tasks, want 20", got)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers, nil)

	var cur, peak atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			cur.Add(-1)
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want <= %d", got, workers)
	}
}

func TestPool_ScheduleAfter(t *testing.T) {
	p := NewPool(1, nil)
	defer p.Close(context.Background())

	fired := make(chan time.Time, 1)
	start := time.Now()
	if _, err := p.ScheduleAfter(20*time.Millisecond, func() { fired <- time.Now() }); err != nil {
		t.Fatalf("ScheduleAfter() error = %v", err)
	}

	select {
	case at := <-fired:
		if d := at.Sub(start); d < 20*time.Millisecond {
			t.Errorf("fired after %s, want >= 20ms", d)
		}
	case <-time.After(time.Second):
		t.Fatal("deferred task never fired")
	}
}

func TestPool_CancelBeforeFire(t *testing.T) {
	p := NewPool(1, nil)
	defer p.Close(context.Background())

	var fired atomic.Bool
	h, err := p.ScheduleAfter(30*time.Millisecond, func() { fired.Store(true) })
	if err != nil {
		t.Fatalf("ScheduleAfter() error = %v", err)
	}

	if !h.Cancel() {
		t.Error("first Cancel() = false, want true")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true, want false")
	}

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("canceled task fired")
	}
}

func TestPool_CancelAfterFire(t *testing.T) {
	p := NewPool(1, nil)
	defer p.Close(context.Background())

	done := make(chan struct{})
	h, err := p.ScheduleAfter(0, func() { close(done) })
	if err != nil {
		t.Fatalf("ScheduleAfter() error = %v", err)
	}
	<-done

	if h.Cancel() {
		t.Error("Cancel() after fire = true, want false")
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(1, nil)

	if err := p.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	done := make(chan struct{})
	if err := p.Submit(func() { close(done) }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool stopped running tasks after a panic")
	}
	if err := p.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPool_Closed(t *testing.T) {
	p := NewPool(1, nil)
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit() error = %v, want ErrPoolClosed", err)
	}
	if _, err := p.ScheduleAfter(time.Millisecond, func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("ScheduleAfter() error = %v, want ErrPoolClosed", err)
	}
}

// Submits racing Close either fail with ErrPoolClosed or finish before Close
// returns.
func TestPool_SubmitRacingClose(t *testing.T) {
	for trial := 0; trial < 200; trial++ {
		p := NewPool(4, nil)

		var accepted, finished atomic.Int64
		start := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for i := 0; i < 20; i++ {
					err := p.Submit(func() {
						time.Sleep(10 * time.Microsecond)
						finished.Add(1)
					})
					if err == nil {
						accepted.Add(1)
					} else if !errors.Is(err, ErrPoolClosed) {
						t.Errorf("Submit() error = %v", err)
					}
				}
			}()
		}

		close(start)
		if err := p.Close(context.Background()); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		afterClose := finished.Load()
		wg.Wait()

		if afterClose != finished.Load() {
			t.Fatalf("trial %d: tasks ran after Close returned: %d then %d", trial, afterClose, finished.Load())
		}
		if got, want := finished.Load(), accepted.Load(); got != want {
			t.Fatalf("trial %d: finished %d of %d accepted tasks", trial, got, want)
		}
	}
}

func TestPool_NilTask(t *testing.T) {
	p := NewPool(1, nil)
	defer p.Close(context.Background())

	if err := p.Submit(nil); !errors.Is(err, ErrNilTask) {
		t.Errorf("Submit(nil) error = %v, want ErrNilTask", err)
	}
	if _, err := p.ScheduleAfter(0, nil); !errors.Is(err, ErrNilTask) {
		t.Errorf("ScheduleAfter(nil) error = %v, want ErrNilTask", err)
	}
}

func TestPool_CloseTimeout(t *testing.T) {
	p := NewPool(1, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	if err := p.Submit(func() {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Close() error = %v, want DeadlineExceeded", err)
	}
	if got := p.Running(); got != 1 {
		t.Errorf("Running() = %d, want 1", got)
	}

	close(release)
}
