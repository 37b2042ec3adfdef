package timer

import (
	"time"

	"timerdeck/internal/record"
)

// Status is the lifecycle state of a runtime.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusPaused    Status = "Paused"
	StatusCompleted Status = "Completed"
)

// EventType defines the type of runtime event.
type EventType string

const (
	EventHalfway    EventType = "halfway"
	EventCompletion EventType = "completion"
	EventWarning    EventType = "warning"
)

// Event is delivered to notifiers. Remaining is set on halfway events,
// Elapsed on completion events, Message on warnings.
type Event struct {
	Type      EventType
	TimerID   string
	Name      string
	Category  record.Category
	Remaining int
	Elapsed   int
	Message   string
	At        time.Time
}

// Snapshot is a read-only copy of a runtime's state.
type Snapshot struct {
	Record          record.Record
	Status          Status
	Remaining       int
	Elapsed         int
	HalfwayNotified bool
}

// Progress returns the completed fraction clamped to [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Record.Duration <= 0 {
		return 1
	}
	progress := float64(s.Record.Duration-s.Remaining) / float64(s.Record.Duration)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
