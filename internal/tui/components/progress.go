package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

// MonthProgress renders how far through the month the current series has
// reported, e.g. "Day 15 of 30  ████████░░░░░░░░  50%".
func MonthProgress(day, monthLength, pct, barWidth int) string {
	t := theme.Active

	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	if barWidth < 4 {
		barWidth = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(t.Current)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(t.Current).Bold(true)

	label := fmt.Sprintf("Day %d of %d", day, monthLength)
	return labelStyle.Render(label) + "  " +
		bar.ViewAs(float64(pct)/100) + " " +
		pctStyle.Render(fmt.Sprintf("%3d%%", pct))
}
