package internal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"timerdeck/internal/history"
	"timerdeck/internal/manager"
	"timerdeck/internal/timer"

	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 20

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Align(lipgloss.Center)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	sectionSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235")).
				Bold(true)

	timerItemStyle = lipgloss.NewStyle().
			PaddingLeft(3)

	timerItemSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(3).
				Foreground(lipgloss.Color("170")).
				Background(lipgloss.Color("235"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	inputInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	progressFilledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("238"))

	logHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	logTagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var statusStyles = map[timer.Status]lipgloss.Style{
	timer.StatusPending:   inactiveStyle,
	timer.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
	timer.StatusPaused:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	timer.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func progressBar(progress float64) string {
	filled := int(math.Round(progress * progressWidth))
	filled = min(max(filled, 0), progressWidth)
	return progressFilledStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", progressWidth-filled))
}

func percent(progress float64) int {
	return int(math.Round(progress * 100))
}

func (m *Model) emptyStateView() string {
	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		titleStyle.Render("Timer Deck")+"\n\n"+
			inactiveStyle.Render("No timers yet. Press 'n' to add one."),
	)
}

func (m *Model) filterLabel() string {
	if c := m.Filter(); c != nil {
		return string(*c)
	}
	return "All"
}

func (m *Model) mainView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Width(80).Render("Timer Deck"))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(fmt.Sprintf("Filter: %s", m.filterLabel())))
	sb.WriteString("\n\n")

	rowIndex := 0
	for _, g := range m.groups() {
		sb.WriteString(m.sectionHeader(g, rowIndex == m.SelectedIndex))
		sb.WriteString("\n")
		rowIndex++
		if !m.Expanded[g.Category] {
			continue
		}
		if len(g.Timers) == 0 {
			sb.WriteString(timerItemStyle.Render(inactiveStyle.Render("(empty)")))
			sb.WriteString("\n")
		}
		for _, s := range g.Timers {
			sb.WriteString(m.timerCard(s, rowIndex == m.SelectedIndex))
			sb.WriteString("\n")
			rowIndex++
		}
	}

	if m.StatusLine != "" {
		sb.WriteString("\n")
		sb.WriteString(statusLineStyle.Render(m.StatusLine))
	}
	if m.Err != nil {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("Error: " + m.Err.Error()))
	}
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("Navigate: Up/Down | Toggle: Enter | Start: s | Pause: p | Reset: r | New: n | Delete: d | Filter: f | History: h | Quit: q"))

	return sb.String()
}

func (m *Model) sectionHeader(g manager.Group, selected bool) string {
	marker := "▸"
	if m.Expanded[g.Category] {
		marker = "▾"
	}
	noun := "Timers"
	if len(g.Timers) == 1 {
		noun = "Timer"
	}
	line := fmt.Sprintf("%s %s  (%d %s)", marker, g.Category, len(g.Timers), noun)
	if selected {
		return sectionSelectedStyle.Render(line)
	}
	return sectionStyle.Render(line)
}

func (m *Model) timerCard(s timer.Snapshot, selected bool) string {
	style, ok := statusStyles[s.Status]
	if !ok {
		style = inactiveStyle
	}
	line := fmt.Sprintf("%-18s Time Left: %4ds  %s  %s %3d%%",
		s.Record.Name,
		s.Remaining,
		style.Render(fmt.Sprintf("%-9s", s.Status)),
		progressBar(s.Progress()),
		percent(s.Progress()),
	)
	if selected {
		return timerItemSelectedStyle.Render(line)
	}
	return timerItemStyle.Render(line)
}

func (m *Model) addFormView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("Add Timer"))
	sb.WriteString("\n\n")

	fields := []struct {
		label string
		value string
	}{
		{"Name: ", m.NewTimerName},
		{"Duration (seconds): ", m.NewTimerDuration},
		{"Category: ", m.categoryChoice()},
	}

	var form strings.Builder
	for i, f := range fields {
		// Add a visible focus marker so it's obvious which field is active.
		marker := "  "
		label := inputInactiveStyle.Render(marker + f.label)
		value := f.value
		if m.InputFocus == i {
			marker = "→ "
			label = inputStyle.Render(marker + f.label)
			if i < 2 {
				value = inputStyle.Render(value + "█")
			} else {
				value = inputStyle.Render("‹ " + value + " ›")
			}
		}
		form.WriteString(label + value + "\n\n")
	}
	if m.FormErr != "" {
		form.WriteString(errorStyle.Render(m.FormErr) + "\n\n")
	}
	form.WriteString(helpStyle.Render("Tab: Next field | Left/Right: Category | Enter: Save | Esc: Cancel"))

	sb.WriteString(boxStyle.Width(56).Render(form.String()))

	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		sb.String(),
	)
}

func (m *Model) categoryChoice() string {
	if m.NewCategoryIndex < 0 || m.NewCategoryIndex >= len(m.Categories) {
		return ""
	}
	return string(m.Categories[m.NewCategoryIndex])
}

func (m *Model) completionView() string {
	e := m.Completed[0]
	body := fmt.Sprintf(
		"%s\n\n%s\n\n%s\n%s\n\n%s",
		titleStyle.Render("🎉 Congratulations!"),
		fmt.Sprintf("You've completed the %q timer.", e.Name),
		inactiveStyle.Render(fmt.Sprintf("Category: %s", e.Category)),
		fmt.Sprintf("Total Time: %dm %ds", e.Elapsed/60, e.Elapsed%60),
		helpStyle.Render(m.completionHelp()),
	)
	return lipgloss.Place(
		80, 24,
		lipgloss.Center, lipgloss.Center,
		boxStyle.Width(50).Align(lipgloss.Center).Render(body),
	)
}

func (m *Model) completionHelp() string {
	if more := len(m.Completed) - 1; more > 0 {
		return fmt.Sprintf("Enter/Esc: Next (%d more)", more)
	}
	return "Enter/Esc: Close"
}

func (m *Model) historyView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(80).Render("History"))
	sb.WriteString("\n\n")

	if len(m.History) == 0 {
		sb.WriteString(inactiveStyle.Render("No completed timers yet."))
	} else {
		sb.WriteString(logHeaderStyle.Render(fmt.Sprintf("%d completed", len(m.History))))
		sb.WriteString("\n")
		// newest first
		for i := len(m.History) - 1 - m.HistoryScroll; i >= 0; i-- {
			sb.WriteString(m.formatHistoryEntry(m.History[i]))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Scroll: Up/Down | Back: Esc/h"))
	return sb.String()
}

func (m *Model) formatHistoryEntry(e history.Entry) string {
	timeStr := logTimeStyle.Render(e.CompletionTimestamp.Local().Format("Jan 02 15:04"))
	dur := formatDuration(time.Duration(e.Duration) * time.Second)
	category := logTagStyle.Render("[" + string(e.Category) + "]")
	return fmt.Sprintf("  %s  %s  %s %s", timeStr, dur, e.Name, category)
}
