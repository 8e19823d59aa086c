package batcher

import (
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/batcher/pkg/executor"
	"github.com/bft-labs/batcher/pkg/log"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// delivery is one consumer invocation as observed by a test.
type delivery struct {
	items []int
	at    time.Duration // virtual time since epoch
}

// sink collects consumer invocations.
type sink struct {
	mu         sync.Mutex
	clock      func() time.Time
	deliveries []delivery
}

func (s *sink) consume(batch []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]int(nil), batch...)
	s.deliveries = append(s.deliveries, delivery{items: cp, at: s.clock().Sub(epoch)})
	return nil
}

func (s *sink) all() []delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery(nil), s.deliveries...)
}

func (s *sink) items() []int {
	var out []int
	for _, d := range s.all() {
		out = append(out, d.items...)
	}
	return out
}

// newManualBatcher builds a Batcher driven by a virtual clock.
func newManualBatcher(capacity int, delay time.Duration, opts ...Option) (*Batcher[int], *executor.Manual, *sink) {
	m := executor.NewManual(epoch)
	s := &sink{clock: m.Now}
	opts = append([]Option{WithExecutor(m), WithClock(m.Now)}, opts...)
	b := MustNew(capacity, delay, s.consume, opts...)
	return b, m, s
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// waitUntil polls cond until it holds or timeout passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// entry is a captured log line.
type entry struct {
	level  string
	msg    string
	fields []log.Field
}

// recordingLogger implements log.Logger and keeps every entry.
type recordingLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordingLogger) add(level, msg string, fields []log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{level, msg, fields})
}

func (l *recordingLogger) Trace(msg string, fields ...log.Field) { l.add("trace", msg, fields) }
func (l *recordingLogger) Debug(msg string, fields ...log.Field) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...log.Field)  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...log.Field)  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...log.Field) { l.add("error", msg, fields) }

func (l *recordingLogger) byLevel(level string) []entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []entry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// fieldString returns the string value logged under key, or "".
func fieldString(fields []log.Field, key string) string {
	for _, f := range fields {
		if f.Key == key {
			v, _ := f.Value.(string)
			return v
		}
	}
	return ""
}

// countingRecorder implements Recorder with plain counters.
type countingRecorder struct {
	mu         sync.Mutex
	enqueued   int
	dispatched int
	batches    int
	failures   int
	discarded  int
	depth      int
}

func (r *countingRecorder) Enqueued(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueued += n
}

func (r *countingRecorder) InboxDepth(_ string, depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depth = depth
}

func (r *countingRecorder) Dispatched(_ string, size int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatched += size
	r.batches++
}

func (r *countingRecorder) ConsumerFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *countingRecorder) Discarded(_ string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded += n
}
