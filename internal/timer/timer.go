package timer

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"timerdeck/internal/history"
	"timerdeck/internal/record"
)

var (
	// ErrPersistence wraps history sink failures. The run stays completed.
	ErrPersistence = errors.New("history not recorded")
	// ErrNotification wraps notifier failures.
	ErrNotification = errors.New("notification not delivered")
)

// Notifier receives halfway and completion events. Implementations must not block.
type Notifier interface {
	Notify(event Event) error
}

// HistorySink records completed runs.
type HistorySink interface {
	AppendHistory(entry history.Entry) error
}

// Ports are the collaborators a runtime calls out to. Any of them may be nil.
type Ports struct {
	Notifier  Notifier
	History   HistorySink
	Logger    *log.Logger
	OnFailure func(error)
	Now       func() time.Time
}

// Runtime drives the countdown of one timer record.
type Runtime struct {
	mu              sync.Mutex
	record          record.Record
	status          Status
	remaining       int
	halfwayNotified bool
	epoch           uint64
	ports           Ports
}

// New returns a pending runtime for r.
func New(r record.Record, ports Ports) *Runtime {
	if ports.Logger == nil {
		ports.Logger = log.New(io.Discard)
	}
	if ports.Now == nil {
		ports.Now = time.Now
	}
	return &Runtime{
		record:    r,
		status:    StatusPending,
		remaining: r.Duration,
		ports:     ports,
	}
}

func (t *Runtime) Record() record.Record {
	return t.record
}

// Start moves a pending or paused runtime to running.
func (t *Runtime) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPending && t.status != StatusPaused {
		return false
	}
	t.status = StatusRunning
	t.epoch++
	return true
}

// Pause stops a running runtime, keeping its remaining time.
func (t *Runtime) Pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusRunning {
		return false
	}
	t.status = StatusPaused
	t.epoch++
	return true
}

// Reset returns the runtime to pending with its full duration.
func (t *Runtime) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusPending
	t.remaining = t.record.Duration
	t.halfwayNotified = false
	t.epoch++
}

// Cancel revokes every tick issued so far without changing state.
func (t *Runtime) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch++
}

// Epoch identifies the current tick generation.
func (t *Runtime) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

// Running reports whether the runtime accepts ticks.
func (t *Runtime) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusRunning
}

// Tick advances the countdown by one second if running.
func (t *Runtime) Tick() bool {
	t.mu.Lock()
	epoch := t.epoch
	t.mu.Unlock()
	return t.TickEpoch(epoch)
}

// TickEpoch advances the countdown only if epoch is still current.
// Ticks captured before a Pause, Reset or Cancel are dropped.
func (t *Runtime) TickEpoch(epoch uint64) bool {
	t.mu.Lock()
	if epoch != t.epoch || t.status != StatusRunning || t.remaining <= 0 {
		t.mu.Unlock()
		return false
	}

	t.remaining--
	var events []Event
	now := t.ports.Now()

	if t.remaining > 0 && t.remaining == t.record.HalfwayPoint() && !t.halfwayNotified {
		t.halfwayNotified = true
		events = append(events, Event{
			Type:      EventHalfway,
			TimerID:   t.record.ID,
			Name:      t.record.Name,
			Category:  t.record.Category,
			Remaining: t.remaining,
			At:        now,
		})
	}

	completed := false
	if t.remaining == 0 {
		t.status = StatusCompleted
		t.epoch++
		completed = true
		events = append(events, Event{
			Type:     EventCompletion,
			TimerID:  t.record.ID,
			Name:     t.record.Name,
			Category: t.record.Category,
			Elapsed:  t.record.Duration,
			At:       now,
		})
	}
	t.mu.Unlock()

	for _, event := range events {
		t.notify(event)
	}
	if completed {
		t.appendHistory(history.NewEntry(t.record, now))
	}
	return true
}

// Snapshot returns a copy of the current state.
func (t *Runtime) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Record:          t.record,
		Status:          t.status,
		Remaining:       t.remaining,
		Elapsed:         t.record.Duration - t.remaining,
		HalfwayNotified: t.halfwayNotified,
	}
}

func (t *Runtime) notify(event Event) {
	if t.ports.Notifier == nil {
		return
	}
	if err := t.ports.Notifier.Notify(event); err != nil {
		t.ports.Logger.Warn("notification failed", "event", event.Type, "err", err)
		t.fail(fmt.Errorf("%w: %s for %q: %w", ErrNotification, event.Type, t.record.Name, err))
	}
}

func (t *Runtime) appendHistory(entry history.Entry) {
	if t.ports.History == nil {
		return
	}
	if err := t.ports.History.AppendHistory(entry); err != nil {
		t.ports.Logger.Error("history append failed", "err", err)
		t.fail(fmt.Errorf("%w: %q: %w", ErrPersistence, t.record.Name, err))
	}
}

func (t *Runtime) fail(err error) {
	if t.ports.OnFailure != nil {
		t.ports.OnFailure(err)
	}
}
