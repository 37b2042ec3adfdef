package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"timerdeck/internal/record"
	"timerdeck/internal/timer"
)

var (
	ErrDuplicateID   = errors.New("duplicate timer id")
	ErrNotFound      = errors.New("timer not found")
	ErrUnknownAction = errors.New("unknown action")
)

// Action is a user command routed to a runtime.
type Action string

const (
	ActionStart Action = "start"
	ActionPause Action = "pause"
	ActionReset Action = "reset"
)

// Group is the set of timers in one category, in insertion order.
type Group struct {
	Category record.Category
	Timers   []timer.Snapshot
}

// Options configures the collaborators shared by every runtime.
type Options struct {
	Notifier  timer.Notifier
	History   timer.HistorySink
	Logger    *log.Logger
	OnFailure func(error)
	Now       func() time.Time
}

// Manager owns one runtime per timer record and drives their ticks.
type Manager struct {
	mu         sync.RWMutex
	categories record.Categories
	runtimes   map[string]*timer.Runtime
	order      []string
	opts       Options
}

func New(categories record.Categories, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Manager{
		categories: append(record.Categories(nil), categories...),
		runtimes:   make(map[string]*timer.Runtime),
		opts:       opts,
	}
}

func (m *Manager) Categories() record.Categories {
	return append(record.Categories(nil), m.categories...)
}

// Load replaces the managed set. On error nothing changes.
func (m *Manager) Load(records []record.Record) error {
	runtimes := make(map[string]*timer.Runtime, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("load %q: %w", r.ID, err)
		}
		if _, exists := runtimes[r.ID]; exists {
			return fmt.Errorf("load: %w: %s", ErrDuplicateID, r.ID)
		}
		runtimes[r.ID] = m.newRuntime(r)
		order = append(order, r.ID)
	}

	m.mu.Lock()
	old := m.runtimes
	m.runtimes = runtimes
	m.order = order
	m.mu.Unlock()

	for _, rt := range old {
		rt.Cancel()
	}
	m.opts.Logger.Info("timers loaded", "count", len(order))
	return nil
}

// AddTimer inserts a pending runtime for r. Its category must be one of the
// manager's categories.
func (m *Manager) AddTimer(r record.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if !m.categories.Contains(r.Category) {
		return fmt.Errorf("%w: unknown category %q", record.ErrValidation, r.Category)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runtimes[r.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	m.runtimes[r.ID] = m.newRuntime(r)
	m.order = append(m.order, r.ID)
	m.opts.Logger.Debug("timer added", "timer", r.ID, "name", r.Name)
	return nil
}

// RemoveTimer cancels and drops the runtime for id.
func (m *Manager) RemoveTimer(id string) error {
	m.mu.Lock()
	rt, ok := m.runtimes[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.runtimes, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	rt.Cancel()
	m.opts.Logger.Debug("timer removed", "timer", id)
	return nil
}

// Dispatch applies action to the runtime for id.
func (m *Manager) Dispatch(id string, action Action) error {
	m.mu.RLock()
	rt, ok := m.runtimes[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	switch action {
	case ActionStart:
		rt.Start()
	case ActionPause:
		rt.Pause()
	case ActionReset:
		rt.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return nil
}

// Get returns the current state of one timer.
func (m *Manager) Get(id string) (timer.Snapshot, error) {
	m.mu.RLock()
	rt, ok := m.runtimes[id]
	m.mu.RUnlock()
	if !ok {
		return timer.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rt.Snapshot(), nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// ListGrouped returns one group per category in declared order, empty groups
// included. A non-nil filter keeps only that category.
func (m *Manager) ListGrouped(filter *record.Category) []Group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make([]Group, 0, len(m.categories))
	for _, category := range m.categories {
		if filter != nil && *filter != category {
			continue
		}
		group := Group{Category: category, Timers: []timer.Snapshot{}}
		for _, id := range m.order {
			rt := m.runtimes[id]
			if rt.Record().Category == category {
				group.Timers = append(group.Timers, rt.Snapshot())
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// Tick delivers one tick to every running runtime. Epochs are captured under
// the lock so that a pause, reset or removal issued meanwhile wins.
func (m *Manager) Tick() int {
	type due struct {
		rt    *timer.Runtime
		epoch uint64
	}

	m.mu.RLock()
	pending := make([]due, 0, len(m.order))
	for _, id := range m.order {
		rt := m.runtimes[id]
		if rt.Running() {
			pending = append(pending, due{rt: rt, epoch: rt.Epoch()})
		}
	}
	m.mu.RUnlock()

	advanced := 0
	for _, d := range pending {
		if d.rt.TickEpoch(d.epoch) {
			advanced++
		}
	}
	return advanced
}

// Run ticks every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Close revokes every runtime's ticks.
func (m *Manager) Close() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rt := range m.runtimes {
		rt.Cancel()
	}
}

func (m *Manager) newRuntime(r record.Record) *timer.Runtime {
	return timer.New(r, timer.Ports{
		Notifier:  m.opts.Notifier,
		History:   m.opts.History,
		Logger:    m.opts.Logger.With("timer", r.ID),
		OnFailure: m.opts.OnFailure,
		Now:       m.opts.Now,
	})
}
