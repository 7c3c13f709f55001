// Package theme holds the lipgloss styles shared by agentctl's terminal views.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9A9A9A"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF6B6B"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#1E8449", Dark: "#58D68D"}
)

func HeadingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
}

// StatusStyle is used for labels and help text.
func StatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// LinkStyle underlines hint links so they read as clickable.
func LinkStyle() lipgloss.Style {
	return lipgloss.NewStyle().Underline(true).Foreground(ColorPrimary)
}

// SelectedStyle marks the row under the cursor.
func SelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().PaddingLeft(1).Foreground(ColorPrimary)
}
