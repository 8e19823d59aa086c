package domain

import (
	"time"

	"github.com/google/uuid"
)

// Op names the kind of change observed on a path.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
	OpChmod  Op = "chmod"
)

// ChangeEvent is a single file system change.
type ChangeEvent struct {
	ID   string    `json:"id"`
	Path string    `json:"path"`
	Op   Op        `json:"op"`
	At   time.Time `json:"at"`
}

// NewChangeEvent creates an event with a fresh random ID.
func NewChangeEvent(path string, op Op, at time.Time) ChangeEvent {
	return ChangeEvent{
		ID:   uuid.NewString(),
		Path: path,
		Op:   op,
		At:   at.UTC(),
	}
}
