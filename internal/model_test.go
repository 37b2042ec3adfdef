package internal

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timerdeck/internal/history"
	"timerdeck/internal/manager"
	"timerdeck/internal/record"
	"timerdeck/internal/timer"
)

type fakeStore struct {
	records []record.Record
	history []history.Entry
	err     error
}

func (f *fakeStore) Add(r record.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeStore) Delete(id string) error {
	if f.err != nil {
		return f.err
	}
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) LoadHistory() ([]history.Entry, error) {
	return f.history, f.err
}

var testCategories = record.Categories{"Workout", "Study", "Break"}

func newTestModel(t *testing.T) (*Model, *manager.Manager, *fakeStore) {
	t.Helper()
	mgr := manager.New(testCategories, manager.Options{})
	require.NoError(t, mgr.Load([]record.Record{
		{ID: "a", Name: "Squats", Duration: 10, Category: "Workout"},
		{ID: "b", Name: "Reading", Duration: 4, Category: "Study"},
	}))
	store := &fakeStore{}
	return NewModel(mgr, store, nil), mgr, store
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(key(k))
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestSectionsStartCollapsed(t *testing.T) {
	m, _, _ := newTestModel(t)
	// Workout, Study, Break
	assert.Len(t, m.rows(), 3)
	assert.Empty(t, m.SelectedTimerID())
	assert.NotContains(t, m.View(), "Squats")
}

func TestRowsFollowGroupsAndExpansion(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "enter")
	assert.True(t, m.Expanded["Workout"])
	// Workout, a, Study, Break
	assert.Len(t, m.rows(), 4)

	press(m, "down", "down", "enter")
	// Workout, a, Study, b, Break
	assert.Len(t, m.rows(), 5)

	press(m, "up", "up", "enter")
	assert.False(t, m.Expanded["Workout"])
	assert.Len(t, m.rows(), 4)
}

func TestStartPauseResetSelectedTimer(t *testing.T) {
	m, mgr, _ := newTestModel(t)
	press(m, "enter", "down")
	require.Equal(t, "a", m.SelectedTimerID())

	press(m, "s")
	mgr.Tick()
	s, _ := mgr.Get("a")
	assert.Equal(t, timer.StatusRunning, s.Status)
	assert.Equal(t, 9, s.Remaining)

	press(m, "p")
	s, _ = mgr.Get("a")
	assert.Equal(t, timer.StatusPaused, s.Status)

	press(m, "enter")
	s, _ = mgr.Get("a")
	assert.Equal(t, timer.StatusRunning, s.Status)

	press(m, "r")
	s, _ = mgr.Get("a")
	assert.Equal(t, timer.StatusPending, s.Status)
	assert.Equal(t, 10, s.Remaining)
}

func TestFilterCyclesCategories(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Nil(t, m.Filter())

	press(m, "f")
	require.NotNil(t, m.Filter())
	assert.Equal(t, record.Category("Workout"), *m.Filter())
	assert.Len(t, m.rows(), 1)

	press(m, "f", "f", "f")
	assert.Nil(t, m.Filter())
}

func TestAddTimerFlow(t *testing.T) {
	m, mgr, store := newTestModel(t)
	press(m, "n")
	require.True(t, m.ShowAddForm)

	typeText(m, "Nap")
	press(m, "tab")
	typeText(m, "6x0")
	press(m, "tab", "right", "right", "enter")

	require.False(t, m.ShowAddForm, m.FormErr)
	require.Len(t, store.records, 1)
	r := store.records[0]
	assert.Equal(t, "Nap", r.Name)
	assert.Equal(t, 60, r.Duration)
	assert.Equal(t, record.Category("Break"), r.Category)
	assert.Equal(t, 3, mgr.Len())
	assert.Equal(t, r.ID, m.SelectedTimerID())
}

func TestAddTimerRequiresFields(t *testing.T) {
	m, mgr, store := newTestModel(t)
	press(m, "n")
	typeText(m, "Nap")
	press(m, "enter", "enter", "enter")

	assert.True(t, m.ShowAddForm)
	assert.Equal(t, "Please fill all fields!", m.FormErr)
	assert.Empty(t, store.records)
	assert.Equal(t, 2, mgr.Len())

	press(m, "esc")
	assert.False(t, m.ShowAddForm)
}

func TestAddTimerRejectsZeroDuration(t *testing.T) {
	m, mgr, _ := newTestModel(t)
	press(m, "n")
	typeText(m, "Nap")
	press(m, "tab")
	typeText(m, "0")
	press(m, "tab", "enter")

	assert.True(t, m.ShowAddForm)
	assert.NotEmpty(t, m.FormErr)
	assert.Equal(t, 2, mgr.Len())
}

func TestAddTimerStoreFailureBlocksCreation(t *testing.T) {
	m, mgr, store := newTestModel(t)
	store.err = errors.New("disk full")
	err := m.AddTimer("Nap", 5, "Break")
	assert.ErrorIs(t, err, store.err)
	assert.Equal(t, 2, mgr.Len())
	assert.Len(t, m.rows(), 3)
}

func TestAddTimerManagerRejectionSkipsStore(t *testing.T) {
	m, mgr, store := newTestModel(t)
	m.Categories = append(m.Categories, "Chores")
	err := m.AddTimer("Dishes", 5, "Chores")
	assert.ErrorIs(t, err, record.ErrValidation)
	assert.Empty(t, store.records)
	assert.Equal(t, 2, mgr.Len())
}

func TestDeleteSelectedTimer(t *testing.T) {
	m, mgr, store := newTestModel(t)
	store.records = []record.Record{{ID: "a"}, {ID: "b"}}
	press(m, "enter", "down", "d")

	assert.Equal(t, 1, mgr.Len())
	_, err := mgr.Get("a")
	assert.ErrorIs(t, err, manager.ErrNotFound)
	assert.Len(t, store.records, 1)
}

func TestCompletionEventShowsModal(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(eventMsg(timer.Event{Type: timer.EventCompletion, Name: "Squats", Category: "Workout", Elapsed: 75}))
	require.Len(t, m.Completed, 1)
	assert.Contains(t, m.View(), "Congratulations")
	assert.Contains(t, m.View(), "Total Time: 1m 15s")

	press(m, "enter")
	assert.Empty(t, m.Completed)
	assert.NotContains(t, m.View(), "Congratulations")
}

func TestCompletionModalsShowInTurn(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(eventMsg(timer.Event{Type: timer.EventCompletion, Name: "Squats", Category: "Workout", Elapsed: 10}))
	m.Update(eventMsg(timer.Event{Type: timer.EventCompletion, Name: "Reading", Category: "Study", Elapsed: 4}))
	require.Len(t, m.Completed, 2)

	view := m.View()
	assert.Contains(t, view, `"Squats"`)
	assert.Contains(t, view, "1 more")

	press(m, "enter")
	view = m.View()
	assert.Contains(t, view, `"Reading"`)
	assert.Contains(t, view, "Close")

	press(m, "enter")
	assert.Empty(t, m.Completed)
	assert.NotContains(t, m.View(), "Congratulations")
}

type chanNotifier chan timer.Event

func (c chanNotifier) Notify(e timer.Event) error {
	c <- e
	return nil
}

func TestSameTickCompletionsAreAllShown(t *testing.T) {
	events := make(chan timer.Event, 8)
	mgr := manager.New(testCategories, manager.Options{Notifier: chanNotifier(events)})
	require.NoError(t, mgr.Load([]record.Record{
		{ID: "a", Name: "Squats", Duration: 1, Category: "Workout"},
		{ID: "b", Name: "Reading", Duration: 1, Category: "Study"},
	}))
	m := NewModel(mgr, &fakeStore{}, events)
	require.NoError(t, mgr.Dispatch("a", manager.ActionStart))
	require.NoError(t, mgr.Dispatch("b", manager.ActionStart))
	mgr.Tick()

	for len(events) > 0 {
		m.Update(m.Init()())
	}

	var shown []string
	for len(m.Completed) > 0 {
		shown = append(shown, m.Completed[0].Name)
		assert.Contains(t, m.View(), m.Completed[0].Name)
		press(m, "enter")
	}
	assert.ElementsMatch(t, []string{"Squats", "Reading"}, shown)
}

func TestHalfwayAndWarningEventsSetStatusLine(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(eventMsg(timer.Event{Type: timer.EventHalfway, Name: "Squats", Remaining: 5}))
	assert.Contains(t, m.StatusLine, "Halfway")
	assert.Contains(t, m.View(), "Halfway")

	m.Update(eventMsg(timer.Event{Type: timer.EventWarning, Message: "history not recorded"}))
	assert.Contains(t, m.StatusLine, "history not recorded")
}

func TestEventCommandReadsChannel(t *testing.T) {
	mgr := manager.New(testCategories, manager.Options{})
	events := make(chan timer.Event, 1)
	m := NewModel(mgr, &fakeStore{}, events)

	events <- timer.Event{Type: timer.EventHalfway, TimerID: "a"}
	msg := m.Init()()
	assert.Equal(t, eventMsg(timer.Event{Type: timer.EventHalfway, TimerID: "a"}), msg)

	close(events)
	assert.Nil(t, m.Init()())
}

func TestHistoryView(t *testing.T) {
	m, _, store := newTestModel(t)
	store.history = []history.Entry{
		history.NewEntry(record.Record{ID: "a", Name: "Squats", Duration: 10, Category: "Workout"}, time.Now()),
		history.NewEntry(record.Record{ID: "b", Name: "Reading", Duration: 4, Category: "Study"}, time.Now()),
	}
	press(m, "h")
	require.True(t, m.ShowHistory)
	view := m.View()
	assert.Contains(t, view, "Squats")
	assert.Contains(t, view, "Reading")

	press(m, "esc")
	assert.False(t, m.ShowHistory)
}

func TestEmptyStateView(t *testing.T) {
	mgr := manager.New(testCategories, manager.Options{})
	m := NewModel(mgr, &fakeStore{}, nil)
	assert.Contains(t, m.View(), "No timers yet")
	assert.Nil(t, m.Init())
}

func TestMainViewShowsTimers(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "enter")
	view := m.View()
	assert.Contains(t, view, "Workout")
	assert.Contains(t, view, "1 Timer")
	assert.Contains(t, view, "Squats")
	assert.Contains(t, view, "Break")
	assert.Contains(t, view, "0%")
}
