// Package components provides reusable TUI widgets for the pollen dashboard.
package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

// Card is one summary metric.
type Card struct {
	Label string
	Value string
	Delta string
	Color lipgloss.Color // value color; TextPrimary when empty
}

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// MetricCard renders a small metric card with label, value, and delta.
// outerWidth is the total rendered width including border. A highlighted
// card gets the accent border.
func MetricCard(c Card, outerWidth int, highlight bool) string {
	t := theme.Active

	contentWidth := outerWidth - 2 // subtract border
	if contentWidth < 10 {
		contentWidth = 10
	}

	border := t.Border
	if highlight {
		border = t.BorderAccent
	}
	valueColor := c.Color
	if valueColor == "" {
		valueColor = t.TextPrimary
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(contentWidth).
		Padding(0, 1)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(valueColor).Bold(true)
	deltaStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	content := labelStyle.Render(c.Label) + "\n" +
		valueStyle.Render(c.Value)
	if c.Delta != "" {
		content += "\n" + deltaStyle.Render(c.Delta)
	}

	return cardStyle.Render(content)
}

// MetricCardRow renders a row of metric cards side by side.
// totalWidth is the full row width; cards sum to exactly that. Cards at
// index >= revealed show a blank value; the card at revealed-1 is
// highlighted while the row is still revealing.
func MetricCardRow(cards []Card, totalWidth, revealed int) string {
	if len(cards) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(cards))

	rendered := make([]string, 0, len(cards))
	for i, c := range cards {
		if i >= revealed {
			c.Value = " "
			c.Delta = ""
		}
		highlight := revealed < len(cards) && i == revealed-1
		rendered = append(rendered, MetricCard(c, widths[i], highlight))
	}

	return CardRow(rendered)
}

// ContentCard renders a bordered content card with an optional title.
// outerWidth controls the total rendered width including border.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active

	contentWidth := outerWidth - 2 // subtract border chars
	if contentWidth < 10 {
		contentWidth = 10
	}

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Width(contentWidth).
		Padding(0, 1)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Bold(true)

	content := ""
	if title != "" {
		content = titleStyle.Render(title) + "\n"
	}
	content += body

	return cardStyle.Render(content)
}

// CardRow joins pre-rendered card strings horizontally.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4 // 2 border + 2 padding
	if w < 10 {
		w = 10
	}
	return w
}

// Legend renders the series key shown under the chart.
func Legend() string {
	t := theme.Active
	dot := func(c lipgloss.Color, label string) string {
		return lipgloss.NewStyle().Foreground(c).Render("●") + " " +
			lipgloss.NewStyle().Foreground(t.TextMuted).Render(label)
	}
	return dot(t.Current, "This month") + "   " +
		dot(t.LastYear, "Last year") + "   " +
		dot(t.Record, "Record month")
}
