package history

import (
	"time"

	"timerdeck/internal/record"
)

// Entry represents one completed timer run.
type Entry struct {
	record.Record
	CompletionTimestamp time.Time `json:"completionTimestamp"`
}

// NewEntry stamps a record with its completion time.
func NewEntry(r record.Record, completedAt time.Time) Entry {
	return Entry{Record: r, CompletionTimestamp: completedAt}
}
