// Package ui provides styled terminal output helpers for command
// results. Styles degrade to plain text on dumb terminals via termenv
// profile detection.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	colorEnabled = termenv.DefaultOutput().Profile != termenv.Ascii
)

func render(s lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return s.Render(text)
}

// RenderOK renders a success marker.
func RenderOK(text string) string {
	return render(okStyle, text)
}

// RenderFail renders a failure marker.
func RenderFail(text string) string {
	return render(failStyle, text)
}

// RenderAccent renders emphasized text.
func RenderAccent(text string) string {
	return render(accentStyle, text)
}

// RenderDim renders de-emphasized text.
func RenderDim(text string) string {
	return render(dimStyle, text)
}

// Statusf formats a "[tag] message" progress line.
func Statusf(tag, format string, args ...any) string {
	return fmt.Sprintf("%s %s", RenderAccent("["+tag+"]"), fmt.Sprintf(format, args...))
}
