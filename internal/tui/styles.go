package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

var (
	CriticalColor = lipgloss.Color("#CC3333") // Dark red
	WarningColor  = lipgloss.Color("#FF8800") // Orange
	GoodColor     = lipgloss.Color("#228B22") // Forest green
	InfoColor     = lipgloss.Color("#4682B4") // Steel blue
	TextColor     = lipgloss.Color("#CCCCCC") // Light gray
	MutedColor    = lipgloss.Color("#888888") // Medium gray
	BorderColor   = lipgloss.Color("#666666") // Dark gray
)

var (
	CriticalStyle = lipgloss.NewStyle().Foreground(CriticalColor).Bold(true)
	WarningStyle  = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	GoodStyle     = lipgloss.NewStyle().Foreground(GoodColor).Bold(true)
	InfoStyle     = lipgloss.NewStyle().Foreground(InfoColor)
	MutedStyle    = lipgloss.NewStyle().Foreground(MutedColor)
	TextStyle     = lipgloss.NewStyle().Foreground(TextColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(lipgloss.Color("#1a1a1a")).
			Bold(true).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(MutedColor).
			Padding(0, 1)
)

// SeverityStyle picks the colour for a severity label.
func SeverityStyle(s analyzer.Severity) lipgloss.Style {
	switch s {
	case analyzer.SeverityCritical:
		return CriticalStyle
	case analyzer.SeverityHigh:
		return WarningStyle
	case analyzer.SeverityMedium:
		return InfoStyle
	default:
		return MutedStyle
	}
}

// GrowthStyle colours a growth figure: red for growth, green otherwise.
func GrowthStyle(bytes int64) lipgloss.Style {
	if bytes > 0 {
		return CriticalStyle
	}
	return GoodStyle
}
