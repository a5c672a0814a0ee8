package notify

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha palette.
var flavor = catppuccin.Mocha

var (
	colorText     = lipgloss.Color(flavor.Text().Hex)
	colorSubtext0 = lipgloss.Color(flavor.Subtext0().Hex)
	colorBlue     = lipgloss.Color(flavor.Blue().Hex)
	colorGreen    = lipgloss.Color(flavor.Green().Hex)
	colorRed      = lipgloss.Color(flavor.Red().Hex)
	colorYellow   = lipgloss.Color(flavor.Yellow().Hex)
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	// BannerStyle frames the backend status and OAuth error alerts.
	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorText).
			Padding(0, 1)

	// BannerTitleStyle is the first line of a banner.
	BannerTitleStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	// HintStyle is used for secondary text such as retry hints.
	HintStyle = lipgloss.NewStyle().Foreground(colorSubtext0).Italic(true)
)

var markers = map[Level]string{
	LevelInfo:    "•",
	LevelSuccess: "✓",
	LevelWarning: "⚠️ ",
	LevelError:   "✗",
}

// Render formats a single notice line.
func Render(level Level, msg string) string {
	style := infoStyle
	switch level {
	case LevelSuccess:
		style = successStyle
	case LevelWarning:
		style = warningStyle
	case LevelError:
		style = errorStyle
	}
	return style.Render(markers[level] + " " + msg)
}

// Banner renders a bordered alert with a title, body lines and an optional hint.
func Banner(title string, lines []string, hint string) string {
	var b strings.Builder
	b.WriteString(BannerTitleStyle.Render(title))
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(l)
	}
	if hint != "" {
		b.WriteString("\n")
		b.WriteString(HintStyle.Render(hint))
	}
	return BannerStyle.Render(b.String())
}
