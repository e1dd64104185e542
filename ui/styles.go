package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var warningStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("196")).
	Padding(0, 2)

var dialogStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("241")).
	Padding(1, 4)

var formStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("57")).
	Padding(1, 2)

var titleStyle = lipgloss.NewStyle().Bold(true)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

var inlineErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

var buttonStyle = lipgloss.NewStyle()

var buttonSelectedStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("57"))

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}
