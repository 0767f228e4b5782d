package components

import "github.com/charmbracelet/lipgloss"

// Color scheme
const (
	ColorPrimary = "6"  // Cyan
	ColorSuccess = "2"  // Green
	ColorWarning = "3"  // Yellow
	ColorError   = "1"  // Red
	ColorInfo    = "4"  // Blue
	ColorText    = "15" // White
	ColorMuted   = "8"  // Dark gray
	ColorAccent  = "11" // Bright yellow
)

// Tab bar styles
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorText)).
			Background(lipgloss.Color(ColorInfo)).
			Padding(0, 1)

	TargetStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary))
)

// Text styles
var (
	KeyHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorAccent)).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorError))

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted))

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorAccent))

	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSuccess))

	StatusConnectingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorWarning))

	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorError))
)

// Container styles
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorMuted)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Padding(0, 1)

	CenteredStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)
)

// ApplySize applies both width and height to a style
func ApplySize(style lipgloss.Style, width, height int) lipgloss.Style {
	return style.Width(width - 2).Height(height)
}
