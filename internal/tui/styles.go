package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	connectedColor    = lipgloss.Color("10")  // Green
	reconnectingColor = lipgloss.Color("11")  // Yellow
	failedColor       = lipgloss.Color("9")   // Red
	disconnectedColor = lipgloss.Color("8")   // Gray
	pausedColor       = lipgloss.Color("208") // Orange

	headerBg = lipgloss.Color("235")
	statusBg = lipgloss.Color("236")
	helpBg   = lipgloss.Color("234")
	dimColor = lipgloss.Color("8")

	levelColorMap = map[string]lipgloss.Color{
		"DEBUG":    lipgloss.Color("8"),
		"INFO":     lipgloss.Color("14"),
		"WARN":     lipgloss.Color("11"),
		"ERROR":    lipgloss.Color("9"),
		"CRITICAL": lipgloss.Color("201"),
	}

	subscriptionColorList = []lipgloss.Color{
		lipgloss.Color("14"),  // Cyan
		lipgloss.Color("13"),  // Magenta
		lipgloss.Color("12"),  // Blue
		lipgloss.Color("11"),  // Yellow
		lipgloss.Color("10"),  // Green
		lipgloss.Color("208"), // Orange
	}
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	connectedStyle    = lipgloss.NewStyle().Foreground(connectedColor).Bold(true)
	reconnectingStyle = lipgloss.NewStyle().Foreground(reconnectingColor)
	failedStyle       = lipgloss.NewStyle().Foreground(failedColor).Bold(true)
	disconnectedStyle = lipgloss.NewStyle().Foreground(disconnectedColor)
	pausedStyle       = lipgloss.NewStyle().Foreground(pausedColor).Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(dimColor)

	levelStyles        map[string]lipgloss.Style
	subscriptionStyles []lipgloss.Style
)

func init() {
	levelStyles = make(map[string]lipgloss.Style, len(levelColorMap))
	for level, color := range levelColorMap {
		levelStyles[level] = lipgloss.NewStyle().Foreground(color)
	}
	for _, color := range subscriptionColorList {
		subscriptionStyles = append(subscriptionStyles, lipgloss.NewStyle().Foreground(color))
	}
}

// stateStyle returns the style for a connection state
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "connected":
		return connectedStyle
	case "connecting", "reconnecting":
		return reconnectingStyle
	case "failed":
		return failedStyle
	default:
		return disconnectedStyle
	}
}

// subscriptionStyle returns a stable style for a subscription id
func subscriptionStyle(id string) lipgloss.Style {
	hash := 0
	for _, c := range id {
		hash += int(c)
	}
	return subscriptionStyles[hash%len(subscriptionStyles)]
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}
