package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/synvya/merchant-connect/internal/commands"
	"github.com/synvya/merchant-connect/internal/probe"
)

// menuLevel tracks a position in the navigation stack.
type menuLevel struct {
	title  string
	items  []menuItem
	cursor int
}

// MenuModel is the Bubble Tea model for the main menu.
type MenuModel struct {
	items    []menuItem
	cursor   int
	stack    []menuLevel
	state    commands.MenuState
	width    int
	height   int
	Version  string
	Quitting bool
	Selected MenuAction
}

// NewMenuModel creates a menu model from detected state.
func NewMenuModel(state commands.MenuState) MenuModel {
	return MenuModel{
		items: BuildMenuItems(state),
		state: state,
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) currentItems() []menuItem {
	if len(m.stack) == 0 {
		return m.items
	}
	return m.stack[len(m.stack)-1].items
}

func (m MenuModel) currentTitle() string {
	if len(m.stack) == 0 {
		return ""
	}
	return m.stack[len(m.stack)-1].title
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		items := m.currentItems()

		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(items)-1 {
				m.cursor++
			}

		case "enter":
			if m.cursor >= 0 && m.cursor < len(items) {
				selected := items[m.cursor]
				if selected.isCategory() {
					m.stack = append(m.stack, menuLevel{
						title:  selected.label,
						items:  selected.children,
						cursor: m.cursor,
					})
					m.cursor = 0
				} else {
					m.Selected = selected.action
					return m, tea.Quit
				}
			}

		case "esc":
			if len(m.stack) > 0 {
				prev := m.stack[len(m.stack)-1]
				m.stack = m.stack[:len(m.stack)-1]
				m.cursor = prev.cursor
			} else {
				m.Quitting = true
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

func (m MenuModel) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("merchant-connect"))
	if title := m.currentTitle(); title != "" {
		b.WriteString(SubtleStyle.Render(" > " + title))
	} else if m.Version != "" {
		b.WriteString(" " + SubtleStyle.Render("v"+m.Version))
	}
	b.WriteString("\n")
	b.WriteString(buildStatusSummary(m.state))
	b.WriteString("\n\n")

	for i, item := range m.currentItems() {
		cursor := "  "
		label := item.label
		if i == m.cursor {
			cursor = "> "
			label = CursorStyle.Render(label)
		}
		line := cursor + label
		if item.desc != "" {
			line += " " + SubtleStyle.Render(item.desc)
		}
		if item.isCategory() {
			line += " " + SubtleStyle.Render(">")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if len(m.stack) > 0 {
		b.WriteString(SubtleStyle.Render("esc back  q quit"))
	} else {
		b.WriteString(SubtleStyle.Render("q quit"))
	}
	b.WriteString("\n")

	content := b.String()
	if m.width > 0 {
		content = BoxStyle.Width(min(m.width-2, 60)).Render(content)
	}
	return content
}

// StatusLabel renders a backend status in its color.
func StatusLabel(s probe.Status) string {
	switch s {
	case probe.Online:
		return OnlineStyle.Render("online")
	case probe.Offline:
		return OfflineStyle.Render("offline")
	default:
		return CheckingStyle.Render("checking")
	}
}

// buildStatusSummary returns the one-line header under the title.
func buildStatusSummary(state commands.MenuState) string {
	parts := []string{"backend " + StatusLabel(state.Backend)}
	if state.Connected {
		name := state.BusinessName
		if name == "" {
			name = state.MerchantID
		}
		parts = append(parts, SubtleStyle.Render("connected as ")+name)
		if !state.Published {
			parts = append(parts, SubtleStyle.Render("profile not published"))
		}
	} else {
		parts = append(parts, SubtleStyle.Render("not connected"))
	}
	return strings.Join(parts, SubtleStyle.Render(" | "))
}
