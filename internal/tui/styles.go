package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim   = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed   = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorCyan  = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	selectedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	idStyle       = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	helpStyle     = lipgloss.NewStyle().Foreground(colorDim)
)
