package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("#6C6C6C")
	colorSuccess = lipgloss.Color("#04B575")
	colorError   = lipgloss.Color("#FF5F87")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	errStyle    = lipgloss.NewStyle().Foreground(colorError)
	keyStyle    = lipgloss.NewStyle().Bold(true)
	offKeyStyle = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
	promptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary).Padding(0, 1)
)
