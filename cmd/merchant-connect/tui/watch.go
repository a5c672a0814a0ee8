package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/synvya/merchant-connect/internal/probe"
)

// StatusMsg carries a backend status change into the watch view.
type StatusMsg struct{ Status probe.Status }

// WatchModel shows a spinner while an offline backend is re-probed. It
// quits as soon as the backend comes online.
type WatchModel struct {
	spinner    spinner.Model
	statusBar  StatusBar
	backendURL string
	updates    <-chan probe.Status
	retry      func()

	Status   probe.Status
	Attempts int
	Quitting bool
}

// NewWatchModel creates the watch view. retry is called when the user
// presses r and may be nil.
func NewWatchModel(backendURL string, initial probe.Status, updates <-chan probe.Status, retry func()) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return WatchModel{
		spinner:    s,
		statusBar:  NewStatusBar([2]string{"r", "retry now"}, [2]string{"q", "quit"}),
		backendURL: backendURL,
		updates:    updates,
		retry:      retry,
		Status:     initial,
	}
}

// Online reports whether the watch ended because the backend came up.
func (m WatchModel) Online() bool {
	return m.Status == probe.Online
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForStatus(m.updates))
}

func waitForStatus(ch <-chan probe.Status) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return StatusMsg{Status: <-ch}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.statusBar.SetWidth(msg.Width)
		return m, nil

	case StatusMsg:
		m.Status = msg.Status
		switch msg.Status {
		case probe.Online:
			return m, tea.Quit
		case probe.Offline:
			m.Attempts++
		}
		return m, waitForStatus(m.updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "r":
			if m.retry != nil {
				retry := m.retry
				return m, func() tea.Msg {
					retry()
					return nil
				}
			}
		}
	}
	return m, nil
}

func (m WatchModel) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("merchant-connect"))
	b.WriteString(SubtleStyle.Render(" > backend"))
	b.WriteString("\n\n")

	if m.Online() {
		b.WriteString(OnlineStyle.Render("✓ ") + m.backendURL + " is online\n")
		return b.String()
	}

	b.WriteString(m.spinner.View() + " Waiting for " + m.backendURL + "  " + StatusLabel(m.Status) + "\n")
	if m.Attempts > 0 {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d failed %s", m.Attempts, plural(m.Attempts, "attempt", "attempts"))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	bar := m.statusBar
	bar.SetMessage("retrying every few seconds")
	b.WriteString(bar.View())
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
