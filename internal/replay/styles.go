package replay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Component color scheme - consistent across the timeline.
var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - timestamps, metadata

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")) // White bold - headers

	flowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White - task lifecycle

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue - step actions

	securityStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")) // Cyan - policy rejections

	reflectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")) // Magenta - reflections

	replanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow - replan rounds

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow

	contentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")) // Light gray - output blocks

	seqStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)
