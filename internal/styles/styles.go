// Package styles provides the terminal styling used for progress output.
// Output is plain when stderr is not a terminal.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Primary      = lipgloss.Color("#7D56F4")
	SuccessColor = lipgloss.Color("#04B575")
	WarningColor = lipgloss.Color("#FFB347")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#54A6FF")
	TextDim      = lipgloss.Color("#A8A8A8")
)

var (
	TagStyle     = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	DimStyle     = lipgloss.NewStyle().Foreground(TextDim)
)

// Tag renders a "[name]" progress prefix.
func Tag(name string) string {
	return TagStyle.Render("[" + name + "]")
}

// Success renders a completion message.
func Success(text string) string {
	return SuccessStyle.Render(text)
}

// Warning renders a warning message.
func Warning(text string) string {
	return WarningStyle.Render(text)
}

// Error renders an error message.
func Error(text string) string {
	return ErrorStyle.Render(text)
}

// Info renders an informational message.
func Info(text string) string {
	return InfoStyle.Render(text)
}

// Dim renders secondary text.
func Dim(text string) string {
	return DimStyle.Render(text)
}
