package domain

import (
	"time"

	"github.com/google/uuid"
)

// Batch is a group of change events sent together.
type Batch struct {
	// ID identifies the batch across retries.
	ID string `json:"id"`

	// CreatedAt is when the batch was cut from the queue.
	CreatedAt time.Time `json:"created_at"`

	// Events are in the order they were observed.
	Events []ChangeEvent `json:"events"`
}

// NewBatch wraps events in a batch with a fresh ID.
func NewBatch(events []ChangeEvent, now time.Time) *Batch {
	return &Batch{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Events:    events,
	}
}

// Size returns the number of events in the batch.
func (b *Batch) Size() int {
	return len(b.Events)
}

// Empty returns true if the batch has no events.
func (b *Batch) Empty() bool {
	return len(b.Events) == 0
}

// Paths returns the distinct paths touched by the batch, in first-seen order.
func (b *Batch) Paths() []string {
	seen := make(map[string]struct{}, len(b.Events))
	paths := make([]string, 0, len(b.Events))
	for _, e := range b.Events {
		if _, ok := seen[e.Path]; ok {
			continue
		}
		seen[e.Path] = struct{}{}
		paths = append(paths, e.Path)
	}
	return paths
}
