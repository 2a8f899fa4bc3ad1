package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary = lipgloss.Color("#56B6F4") // Blue
	colorAccent  = lipgloss.Color("#F4D356") // Yellow
	colorText    = lipgloss.Color("#FAFAFA") // White/Light Gray
	colorSubtext = lipgloss.Color("#777777") // Gray
	colorOpen    = lipgloss.Color("#43BF6D") // Green
	colorError   = lipgloss.Color("#FF5F5F") // Red

	styleAppTitle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(colorText).
			Padding(0, 1).
			Bold(true)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtext).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Width(12)

	styleValue = lipgloss.NewStyle().
			Foreground(colorText)

	styleStateOpen = lipgloss.NewStyle().
			Foreground(colorOpen).
			Bold(true)

	styleStateDown = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleStatus = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorSubtext)

	styleTab = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Padding(0, 1)

	styleTabActive = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(0, 1)

	styleScreenTooSmall = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				Align(lipgloss.Center, lipgloss.Center)
)
