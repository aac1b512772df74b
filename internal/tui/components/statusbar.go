package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. A non-empty errText
// replaces the right-hand status and is shown in the error color.
func RenderStatusBar(width int, status, errText string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [r]eload  [q]uit"
	right := status
	rightStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	if errText != "" {
		right = errText
		rightStyle = lipgloss.NewStyle().Foreground(t.Red).Bold(true)
	}
	if right != "" {
		right += " "
	}

	maxRight := width - lipgloss.Width(left) - 1
	if maxRight < 0 {
		maxRight = 0
	}
	if lipgloss.Width(right) > maxRight {
		runes := []rune(right)
		if maxRight > 1 && len(runes) > maxRight-1 {
			right = string(runes[:maxRight-1]) + "…"
		} else {
			right = ""
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + rightStyle.Render(right))
}
