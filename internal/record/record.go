package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrValidation is returned when a timer definition is malformed.
var ErrValidation = errors.New("invalid timer")

// Category labels a timer. The set of valid categories comes from config.
type Category string

// Categories is an ordered category enumeration.
type Categories []Category

func (c Categories) Contains(category Category) bool {
	for _, known := range c {
		if known == category {
			return true
		}
	}
	return false
}

// Record is an immutable timer definition. Duration is in whole seconds.
type Record struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Duration int      `json:"duration"`
	Category Category `json:"category"`
}

// New validates the input and returns a record with a fresh ID.
func New(name string, duration int, category Category, categories Categories) (Record, error) {
	r := Record{
		ID:       NewID(),
		Name:     strings.TrimSpace(name),
		Duration: duration,
		Category: category,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	if !categories.Contains(category) {
		return Record{}, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	return r, nil
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Validate checks the structural invariants of a record.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if r.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrValidation, r.Duration)
	}
	return nil
}

// HalfwayPoint is the remaining time at which the halfway alert fires.
func (r Record) HalfwayPoint() int {
	return r.Duration / 2
}
