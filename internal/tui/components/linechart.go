package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haledesignstudio/Pollen/internal/model"
	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

// series identifies which line a plotted cell belongs to. Later series
// draw over earlier ones.
type series int

const (
	seriesNone series = iota
	seriesLastYear
	seriesRecord
	seriesCurrent
)

type plotCell struct {
	glyph  rune
	series series
}

// plot is the chart area before styling: rows[0] is the top row.
type plot struct {
	rows    [][]plotCell
	ceiling float64
	xs      []int // progress percent shown in each column
}

// LineChart renders the three cumulative series over 0..100% of the month.
// Columns beyond revealPct are left empty so the chart can sweep in. The
// current-month line is never drawn where its value is absent.
func LineChart(points []model.ChartPoint, revealPct, width, height int) string {
	if width < 20 || height < 4 || len(points) == 0 {
		return ""
	}
	t := theme.Active

	ceiling, tickStep := chartScale(points, height)
	yLabelW := len(formatChartLabel(ceiling)) + 1
	if yLabelW < 4 {
		yLabelW = 4
	}

	chartW := width - yLabelW - 1
	if chartW < 10 {
		chartW = 10
	}
	p := plotSeries(points, revealPct, chartW, height, ceiling)

	numIntervals := int(math.Round(ceiling / tickStep))
	tickLabels := make(map[int]string)
	for i := 1; i <= numIntervals; i++ {
		row := int(math.Round(float64(i) / float64(numIntervals) * float64(height-1)))
		tickLabels[row] = formatChartLabel(tickStep * float64(i))
	}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	styles := map[series]lipgloss.Style{
		seriesNone:     lipgloss.NewStyle(),
		seriesLastYear: lipgloss.NewStyle().Foreground(t.LastYear),
		seriesRecord:   lipgloss.NewStyle().Foreground(t.Record),
		seriesCurrent:  lipgloss.NewStyle().Foreground(t.Current).Bold(true),
	}

	var b strings.Builder
	for r, cells := range p.rows {
		level := height - 1 - r
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[level])))
		b.WriteString(axisStyle.Render("│"))

		// Batch runs of the same series so each run is styled once.
		var run strings.Builder
		cur := seriesNone
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(styles[cur].Render(run.String()))
				run.Reset()
			}
		}
		for _, c := range cells {
			if c.series != cur {
				flush()
				cur = c.series
			}
			if c.glyph == 0 {
				run.WriteRune(' ')
			} else {
				run.WriteRune(c.glyph)
			}
		}
		flush()
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", chartW)))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", yLabelW+1))
	b.WriteString(axisStyle.Render(xAxisLabels(chartW)))

	return b.String()
}

// chartScale picks a rounded ceiling and tick interval for the largest value.
func chartScale(points []model.ChartPoint, height int) (ceiling, tickStep float64) {
	maxVal := 0.0
	for _, p := range points {
		maxVal = math.Max(maxVal, p.LastYearValue)
		maxVal = math.Max(maxVal, p.RecordValue)
		maxVal = math.Max(maxVal, p.Current())
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	tickStep = chartTickStep(maxVal)
	maxIntervals := height / 2
	if maxIntervals < 2 {
		maxIntervals = 2
	}
	for int(math.Ceil(maxVal/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	return math.Ceil(maxVal/tickStep) * tickStep, tickStep
}

// plotSeries lays the series out on a width x height grid.
func plotSeries(points []model.ChartPoint, revealPct, width, height int, ceiling float64) plot {
	byX := make(map[int]model.ChartPoint, len(points))
	for _, pt := range points {
		byX[pt.ProgressPercent] = pt
	}

	p := plot{
		rows:    make([][]plotCell, height),
		ceiling: ceiling,
		xs:      make([]int, width),
	}
	for r := range p.rows {
		p.rows[r] = make([]plotCell, width)
	}
	for c := range p.xs {
		if width == 1 {
			p.xs[c] = 100
			continue
		}
		p.xs[c] = int(math.Round(float64(c) * 100 / float64(width-1)))
	}

	level := func(v float64) int {
		l := int(math.Round(v / ceiling * float64(height-1)))
		if l < 0 {
			return 0
		}
		if l > height-1 {
			return height - 1
		}
		return l
	}

	draw := func(s series, value func(model.ChartPoint) (float64, bool)) {
		prev := -1
		lastCol, lastLevel := -1, 0
		for c, x := range p.xs {
			if x > revealPct {
				break
			}
			pt, ok := byX[x]
			if !ok {
				prev = -1
				continue
			}
			v, ok := value(pt)
			if !ok {
				prev = -1
				continue
			}
			l := level(v)
			switch {
			case prev < 0 || l == prev:
				p.set(l, c, '─', s)
			case l > prev:
				p.set(prev, c, '╯', s)
				for k := prev + 1; k < l; k++ {
					p.set(k, c, '│', s)
				}
				p.set(l, c, '╭', s)
			default:
				p.set(prev, c, '╮', s)
				for k := l + 1; k < prev; k++ {
					p.set(k, c, '│', s)
				}
				p.set(l, c, '╰', s)
			}
			prev = l
			lastCol, lastLevel = c, l
		}
		if lastCol >= 0 {
			p.set(lastLevel, lastCol, '●', s)
		}
	}

	draw(seriesLastYear, func(pt model.ChartPoint) (float64, bool) { return pt.LastYearValue, true })
	draw(seriesRecord, func(pt model.ChartPoint) (float64, bool) { return pt.RecordValue, true })
	draw(seriesCurrent, func(pt model.ChartPoint) (float64, bool) {
		return pt.Current(), pt.HasCurrent()
	})
	return p
}

// set writes a cell by level (0 is the bottom row).
func (p plot) set(level, col int, glyph rune, s series) {
	r := len(p.rows) - 1 - level
	if r < 0 || r >= len(p.rows) || col < 0 || col >= len(p.rows[r]) {
		return
	}
	p.rows[r][col] = plotCell{glyph: glyph, series: s}
}

// xAxisLabels places 0%, 50% and 100% under the chart area.
func xAxisLabels(width int) string {
	buf := []byte(strings.Repeat(" ", width))
	put := func(pos int, s string) {
		if pos+len(s) > width {
			pos = width - len(s)
		}
		if pos < 0 {
			return
		}
		copy(buf[pos:], s)
	}
	put(0, "0%")
	put(width/2-1, "50%")
	put(width-4, "100%")
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e9:
		if v == math.Trunc(v/1e9)*1e9 {
			return fmt.Sprintf("%.0fB", v/1e9)
		}
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		if v == math.Trunc(v/1e6)*1e6 {
			return fmt.Sprintf("%.0fM", v/1e6)
		}
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
