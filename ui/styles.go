package ui

import "github.com/charmbracelet/lipgloss"

var (
	crimson = lipgloss.Color("#AF1B3F")
	cream   = lipgloss.Color("#FFFDF5")

	dimFg = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(crimson).
			Bold(true).
			Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFDF5D")).
				Background(lipgloss.Color("#FF5F87")).
				Render

	statusBarScrollPosStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#89F0CB"}).
			Bold(true).
			Render

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#AF1B3F", Dark: "#FF6E91"}).
				Bold(true).
				Render

	pendingStyle = lipgloss.NewStyle().
			Foreground(dimFg).
			Italic(true).
			Render

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D4403A", Dark: "#FF8383"}).
			Render

	citationStyle = lipgloss.NewStyle().
			Foreground(dimFg).
			Render

	citationHeadStyle = lipgloss.NewStyle().
				Foreground(dimFg).
				Bold(true).
				Render

	promptStyle = lipgloss.NewStyle().
			Foreground(crimson).
			Bold(true)
)

func isabelLogoView() string {
	return logoStyle(" Isabel ")
}
