package executor

import (
	"sort"
	"sync"
	"time"
)

// Manual is an Executor driven by a virtual clock. Nothing runs until the
// caller advances time or drains pending work, which makes timing behavior
// deterministic in tests.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
	queue  []func()
}

type manualTimer struct {
	m        *Manual
	when     time.Time
	seq      uint64
	task     func()
	canceled bool
	fired    bool
}

// NewManual creates a Manual executor whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// ScheduleAfter implements Executor.
func (m *Manual) ScheduleAfter(d time.Duration, task func()) (Handle, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, when: m.now.Add(d), seq: m.seq, task: task}
	m.timers = append(m.timers, t)
	return t, nil
}

// Submit implements Executor. The task runs on the next RunPending or Advance.
func (m *Manual) Submit(task func()) error {
	if task == nil {
		return ErrNilTask
	}
	m.mu.Lock()
	m.queue = append(m.queue, task)
	m.mu.Unlock()
	return nil
}

// Timers returns the number of armed, uncanceled timers.
func (m *Manual) Timers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Queued returns the number of submitted tasks waiting to run.
func (m *Manual) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RunPending runs submitted tasks, including those submitted while running,
// until the queue is empty. It returns the number of tasks run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		task := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		task()
		n++
	}
}

// FireDue fires every timer due at the current virtual time, without running
// the tasks those timers submit. It returns the number of timers fired.
func (m *Manual) FireDue() int {
	n := 0
	for {
		t := m.popDue(m.Now())
		if t == nil {
			return n
		}
		t.task()
		n++
	}
}

// Advance moves the clock forward by d, firing timers in due order and
// draining submitted work after each one.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	m.RunPending()
	for {
		t := m.popDue(target)
		if t == nil {
			break
		}
		m.mu.Lock()
		if t.when.After(m.now) {
			m.now = t.when
		}
		m.mu.Unlock()

		t.task()
		m.RunPending()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// popDue removes and returns the earliest timer due at or before deadline.
func (m *Manual) popDue(deadline time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].when.Equal(m.timers[j].when) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].when.Before(m.timers[j].when)
	})
	t := m.timers[0]
	if t.when.After(deadline) {
		return nil
	}
	m.timers = m.timers[1:]
	t.fired = true
	return t
}

// Cancel implements Handle.
func (t *manualTimer) Cancel() bool {
	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.fired || t.canceled {
		return false
	}
	t.canceled = true
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			break
		}
	}
	return true
}
