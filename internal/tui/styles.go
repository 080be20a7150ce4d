package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	story     lipgloss.Style
	status    lipgloss.Style
	recording lipgloss.Style
	help      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1),
		story:     lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		recording: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff0000")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
}
