package main

import "github.com/charmbracelet/lipgloss"

var (
	nameStyle          = lipgloss.NewStyle().Bold(true)
	defaultMarkerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))            // gray

	errorBlockStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("1"))
)
