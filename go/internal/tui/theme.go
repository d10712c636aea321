package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha subset
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

const panelWidth = 28

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(1, 2).
			Width(panelWidth).
			Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	mainStyle  = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	shotStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	stateStyle = lipgloss.NewStyle().Foreground(colorOverlay1)
	helpStyle  = lipgloss.NewStyle().Foreground(colorOverlay1)
	errStyle   = lipgloss.NewStyle().Foreground(colorRed)
)
