package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StatusBar renders the bottom row with a message and keyboard shortcuts.
type StatusBar struct {
	message string
	keys    [][2]string
	width   int
}

// NewStatusBar creates a status bar listing keys as {key, action} pairs.
func NewStatusBar(keys ...[2]string) StatusBar {
	return StatusBar{keys: keys}
}

// SetWidth sets the available width for rendering.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetMessage sets the left-hand text.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
}

// View renders the status bar.
func (s StatusBar) View() string {
	var shortcuts []string
	for _, k := range s.keys {
		shortcuts = append(shortcuts, StatusBarKeyStyle.Render(k[0])+": "+k[1])
	}
	right := strings.Join(shortcuts, " · ")

	gap := s.width - 2 - ansi.StringWidth(s.message) - ansi.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	content := s.message + strings.Repeat(" ", gap) + right
	if s.width <= 0 {
		return StatusBarStyle.Render(content)
	}
	return StatusBarStyle.Width(s.width).Render(content)
}
