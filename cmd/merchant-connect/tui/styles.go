package tui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha palette.
var flavor = catppuccin.Mocha

var (
	colorSurface0 = lipgloss.Color(flavor.Surface0().Hex)
	colorSurface1 = lipgloss.Color(flavor.Surface1().Hex)
	colorSubtext0 = lipgloss.Color(flavor.Subtext0().Hex)
	colorBlue     = lipgloss.Color(flavor.Blue().Hex)
	colorGreen    = lipgloss.Color(flavor.Green().Hex)
	colorRed      = lipgloss.Color(flavor.Red().Hex)
	colorYellow   = lipgloss.Color(flavor.Yellow().Hex)
	colorMauve    = lipgloss.Color(flavor.Mauve().Hex)
)

var (
	// TitleStyle is used for the app name in headers.
	TitleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	// SubtleStyle is used for secondary text and hints.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0)

	// CursorStyle is used for the focused menu item.
	CursorStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	// HeaderStyle is used for section headers.
	HeaderStyle = lipgloss.NewStyle().
			Foreground(colorMauve).
			Bold(true)

	// BoxStyle wraps the menu when the terminal size is known.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(1, 2)
)

// Backend status styles.
var (
	OnlineStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	OfflineStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	CheckingStyle = lipgloss.NewStyle().Foreground(colorYellow)
	SpinnerStyle  = lipgloss.NewStyle().Foreground(colorMauve)
)

// Status bar styles.
var (
	// StatusBarStyle is the base style for the bottom status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorSubtext0).
			Background(colorSurface0).
			Padding(0, 1)

	// StatusBarKeyStyle highlights keyboard shortcuts in the status bar.
	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Background(colorSurface0).
				Bold(true)
)
