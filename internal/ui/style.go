package ui

import "github.com/charmbracelet/lipgloss"

var TableGray = lipgloss.Color("240")

var Title = lipgloss.NewStyle().Inline(true).Bold(true).Foreground(lipgloss.Color("252")).Render
var Help = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("241")).Render
var Label = lipgloss.NewStyle().Inline(true).Width(12).Foreground(lipgloss.Color("245")).Render
var Success = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("70")).Render
var Failure = lipgloss.NewStyle().Inline(true).Foreground(lipgloss.Color("203")).Render

var TableBase = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(TableGray).
	Render
