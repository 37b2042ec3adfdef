package internal

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"timerdeck/internal/history"
	"timerdeck/internal/manager"
	"timerdeck/internal/record"
	"timerdeck/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgTick asks the UI to redraw. Countdown ticks are driven by the manager.
type MsgTick struct{}

type eventMsg timer.Event

// Store is the persistence the UI needs for the add, delete and history flows.
type Store interface {
	Add(r record.Record) error
	Delete(id string) error
	LoadHistory() ([]history.Entry, error)
}

// row is one selectable line: a category header, or a timer when TimerID is set.
type row struct {
	Category record.Category
	TimerID  string
}

type Model struct {
	mgr    *manager.Manager
	store  Store
	events <-chan timer.Event

	Categories    record.Categories
	FilterIndex   int // 0 is All
	Expanded      map[record.Category]bool
	SelectedIndex int

	ShowAddForm      bool
	NewTimerName     string
	NewTimerDuration string
	NewCategoryIndex int
	InputFocus       int
	FormErr          string

	StatusLine string
	// Completed queues completion modals; the head is on screen.
	Completed []timer.Event

	ShowHistory   bool
	HistoryScroll int
	History       []history.Entry

	Err error
}

func NewModel(mgr *manager.Manager, store Store, events <-chan timer.Event) *Model {
	categories := mgr.Categories()
	return &Model{
		mgr:        mgr,
		store:      store,
		events:     events,
		Categories: categories,
		Expanded:   make(map[record.Category]bool, len(categories)),
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan timer.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(event)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		return m, nil
	case eventMsg:
		m.handleEvent(timer.Event(msg))
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if len(m.Completed) > 0 {
		return m.completionView()
	}

	if m.ShowHistory {
		return m.historyView()
	}

	if m.ShowAddForm {
		return m.addFormView()
	}

	if m.mgr.Len() == 0 {
		return m.emptyStateView()
	}

	return m.mainView()
}

func (m *Model) handleEvent(event timer.Event) {
	switch event.Type {
	case timer.EventHalfway:
		m.StatusLine = fmt.Sprintf("Halfway through %q: %ds left (%s)", event.Name, event.Remaining, event.Category)
	case timer.EventCompletion:
		m.Completed = append(m.Completed, event)
		m.StatusLine = ""
	case timer.EventWarning:
		m.StatusLine = "Warning: " + event.Message
	}
}

// Filter returns the selected category, or nil for All.
func (m *Model) Filter() *record.Category {
	if m.FilterIndex <= 0 || m.FilterIndex > len(m.Categories) {
		return nil
	}
	c := m.Categories[m.FilterIndex-1]
	return &c
}

func (m *Model) groups() []manager.Group {
	return m.mgr.ListGrouped(m.Filter())
}

func (m *Model) rows() []row {
	var rows []row
	for _, g := range m.groups() {
		rows = append(rows, row{Category: g.Category})
		if !m.Expanded[g.Category] {
			continue
		}
		for _, s := range g.Timers {
			rows = append(rows, row{Category: g.Category, TimerID: s.Record.ID})
		}
	}
	return rows
}

func (m *Model) selectedRow() (row, bool) {
	rows := m.rows()
	if m.SelectedIndex >= 0 && m.SelectedIndex < len(rows) {
		return rows[m.SelectedIndex], true
	}
	return row{}, false
}

// SelectedTimerID returns the ID of the timer under the cursor, if any.
func (m *Model) SelectedTimerID() string {
	r, ok := m.selectedRow()
	if !ok {
		return ""
	}
	return r.TimerID
}

func (m *Model) clampSelection() {
	n := len(m.rows())
	if m.SelectedIndex >= n {
		m.SelectedIndex = n - 1
	}
	if m.SelectedIndex < 0 {
		m.SelectedIndex = 0
	}
}

func (m *Model) dispatch(action manager.Action) {
	id := m.SelectedTimerID()
	if id == "" {
		return
	}
	if err := m.mgr.Dispatch(id, action); err != nil {
		m.Err = err
	}
}

// AddTimer validates, registers and persists a new timer. A failed save
// removes the runtime again.
func (m *Model) AddTimer(name string, duration int, category record.Category) error {
	r, err := record.New(name, duration, category, m.Categories)
	if err != nil {
		return err
	}
	if err := m.mgr.AddTimer(r); err != nil {
		return err
	}
	if err := m.store.Add(r); err != nil {
		if rmErr := m.mgr.RemoveTimer(r.ID); rmErr != nil {
			return fmt.Errorf("save timer: %w", errors.Join(err, rmErr))
		}
		return fmt.Errorf("save timer: %w", err)
	}
	m.Expanded[category] = true
	for i, existing := range m.rows() {
		if existing.TimerID == r.ID {
			m.SelectedIndex = i
			break
		}
	}
	return nil
}

// DeleteTimer removes a timer from storage and tears down its runtime.
func (m *Model) DeleteTimer(id string) error {
	if err := m.store.Delete(id); err != nil {
		return fmt.Errorf("delete timer: %w", err)
	}
	if err := m.mgr.RemoveTimer(id); err != nil && !errors.Is(err, manager.ErrNotFound) {
		return err
	}
	m.clampSelection()
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.Completed) > 0 {
		return m.handleCompletionInput(msg)
	}

	if m.ShowHistory {
		return m.handleHistoryInput(msg)
	}

	if m.ShowAddForm {
		return m.handleFormInput(msg)
	}

	m.Err = nil
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.SelectedIndex > 0 {
			m.SelectedIndex--
		}
	case "down", "j":
		if m.SelectedIndex < len(m.rows())-1 {
			m.SelectedIndex++
		}
	case "enter", " ":
		r, ok := m.selectedRow()
		if !ok {
			break
		}
		if r.TimerID == "" {
			m.Expanded[r.Category] = !m.Expanded[r.Category]
			m.clampSelection()
			break
		}
		s, err := m.mgr.Get(r.TimerID)
		if err != nil {
			m.Err = err
			break
		}
		if s.Status == timer.StatusRunning {
			m.dispatch(manager.ActionPause)
		} else {
			m.dispatch(manager.ActionStart)
		}
	case "s":
		m.dispatch(manager.ActionStart)
	case "p":
		m.dispatch(manager.ActionPause)
	case "r":
		m.dispatch(manager.ActionReset)
	case "f":
		m.FilterIndex = (m.FilterIndex + 1) % (len(m.Categories) + 1)
		m.SelectedIndex = 0
	case "n":
		m.ShowAddForm = true
		m.NewTimerName = ""
		m.NewTimerDuration = ""
		m.NewCategoryIndex = 0
		if c := m.Filter(); c != nil {
			m.NewCategoryIndex = slices.Index(m.Categories, *c)
		}
		m.InputFocus = 0
		m.FormErr = ""
	case "d":
		if id := m.SelectedTimerID(); id != "" {
			if err := m.DeleteTimer(id); err != nil {
				m.Err = err
			}
		}
	case "h":
		entries, err := m.store.LoadHistory()
		if err != nil {
			m.Err = err
			break
		}
		m.History = entries
		m.ShowHistory = true
		m.HistoryScroll = 0
	}
	return m, nil
}

func (m *Model) handleCompletionInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", " ", "q":
		m.Completed = m.Completed[1:]
	}
	return m, nil
}

func (m *Model) handleHistoryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc", "h":
		m.ShowHistory = false
		m.History = nil
	case "up", "k":
		if m.HistoryScroll > 0 {
			m.HistoryScroll--
		}
	case "down", "j":
		maxScroll := len(m.History) - 1
		if maxScroll < 0 {
			maxScroll = 0
		}
		if m.HistoryScroll < maxScroll {
			m.HistoryScroll++
		}
	}
	return m, nil
}

func (m *Model) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.ShowAddForm = false
		m.FormErr = ""
	case "tab", "down":
		m.InputFocus = (m.InputFocus + 1) % 3
	case "shift+tab", "up":
		m.InputFocus = (m.InputFocus + 2) % 3
	case "left":
		if m.InputFocus == 2 && len(m.Categories) > 0 {
			m.NewCategoryIndex = (m.NewCategoryIndex + len(m.Categories) - 1) % len(m.Categories)
		}
	case "right", " ":
		if m.InputFocus == 2 && len(m.Categories) > 0 {
			m.NewCategoryIndex = (m.NewCategoryIndex + 1) % len(m.Categories)
		} else if msg.String() == " " && m.InputFocus == 0 {
			m.NewTimerName += " "
		}
	case "enter":
		if m.InputFocus < 2 {
			m.InputFocus++
			break
		}
		m.submitForm()
	case "backspace":
		if m.InputFocus == 0 {
			if len(m.NewTimerName) > 0 {
				runes := []rune(m.NewTimerName)
				m.NewTimerName = string(runes[:len(runes)-1])
			}
		} else if m.InputFocus == 1 {
			if len(m.NewTimerDuration) > 0 {
				m.NewTimerDuration = m.NewTimerDuration[:len(m.NewTimerDuration)-1]
			}
		}
	default:
		runes := []rune(msg.String())
		if len(runes) == 1 {
			if m.InputFocus == 0 {
				m.NewTimerName += string(runes[0])
			} else if m.InputFocus == 1 {
				if runes[0] >= '0' && runes[0] <= '9' {
					m.NewTimerDuration += string(runes[0])
				}
			}
		}
	}
	return m, nil
}

func (m *Model) submitForm() {
	if m.NewTimerName == "" || m.NewTimerDuration == "" || len(m.Categories) == 0 {
		m.FormErr = "Please fill all fields!"
		return
	}
	seconds, err := strconv.Atoi(m.NewTimerDuration)
	if err != nil {
		m.FormErr = "Duration must be a number of seconds"
		return
	}
	if err := m.AddTimer(m.NewTimerName, seconds, m.Categories[m.NewCategoryIndex]); err != nil {
		m.FormErr = err.Error()
		return
	}
	m.ShowAddForm = false
	m.FormErr = ""
}
