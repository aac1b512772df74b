package pipeline

import (
	"math"
	"sort"

	"github.com/haledesignstudio/Pollen/internal/model"
)

const (
	// ProgressSteps is the number of points on the progress axis (0..100).
	ProgressSteps = 101

	minMonthLength = 28
	maxMonthLength = 31
)

// amountField selects one amount column of a raw row.
type amountField func(model.RawRow) model.Cell

func currentField(r model.RawRow) model.Cell  { return r.CurrentMonthAmount }
func recordField(r model.RawRow) model.Cell   { return r.RecordMonthAmount }
func lastYearField(r model.RawRow) model.Cell { return r.LastYearAmount }

// parsedAmount selects one sanitized amount of a parsed day.
type parsedAmount func(model.ParsedDay) float64

func currentAmount(p model.ParsedDay) float64  { return p.Current }
func recordAmount(p model.ParsedDay) float64   { return p.Record }
func lastYearAmount(p model.ParsedDay) float64 { return p.LastYear }

// dayRow pairs a raw row with its parsed form. The raw cells are kept
// because "reported" depends on the cell text, not the parsed value.
type dayRow struct {
	day    int
	raw    model.RawRow
	parsed model.ParsedDay
}

// Normalize aligns the current, last-year, and record series onto a common
// 0-100% month-progress axis. It never fails: malformed values degrade to 0
// and empty input yields a single zero point.
func Normalize(rows []model.RawRow) model.Dataset {
	if len(rows) == 0 {
		zero := 0.0
		return model.Dataset{
			Points: []model.ChartPoint{{CurrentValue: &zero}},
			Meta: model.SeriesMeta{
				CurrentMonthLength: maxMonthLength,
				RecordMonthLength:  maxMonthLength,
			},
		}
	}

	sorted := make([]dayRow, len(rows))
	for i, r := range rows {
		p := ParseDay(r)
		sorted[i] = dayRow{day: p.Day, raw: r, parsed: p}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].day < sorted[j].day
	})

	byDay := make(map[int]model.ParsedDay, maxMonthLength)
	for _, r := range sorted {
		if r.day >= 1 && r.day <= maxMonthLength {
			byDay[r.day] = r.parsed
		}
	}

	currentLen := inferMonthLength(sorted, currentField, lastYearField)
	recordLen := inferMonthLength(sorted, recordField)

	today := inferToday(sorted)
	if today > currentLen {
		today = currentLen
	}

	current := cumulative(dailySeries(byDay, currentLen, currentAmount))
	lastYear := cumulative(dailySeries(byDay, currentLen, lastYearAmount))
	record := cumulative(dailySeries(byDay, recordLen, recordAmount))

	todayProgress := progressPercent(today, currentLen)

	points := make([]model.ChartPoint, ProgressSteps)
	for x := 0; x < ProgressSteps; x++ {
		p := model.ChartPoint{
			ProgressPercent: x,
			LastYearValue:   valueAt(lastYear, x),
			RecordValue:     valueAt(record, x),
		}
		if x <= todayProgress {
			v := valueAt(current, x)
			p.CurrentValue = &v
		}
		points[x] = p
	}

	return model.Dataset{
		Points: points,
		Meta: model.SeriesMeta{
			CurrentMonthLength:   currentLen,
			RecordMonthLength:    recordLen,
			TodayDayIndex:        today,
			TodayProgressPercent: todayProgress,
		},
	}
}

// inferToday returns the last day with a reported current-month value,
// falling back to the last day present.
func inferToday(sorted []dayRow) int {
	today := 0
	for _, r := range sorted {
		if r.day > 0 && Reported(r.raw.CurrentMonthAmount) {
			today = r.day
		}
	}
	if today > 0 {
		return today
	}
	return maxDay(sorted, 0)
}

// inferMonthLength returns the last day on which any of the given fields
// was reported, clamped to a plausible month length.
func inferMonthLength(sorted []dayRow, fields ...amountField) int {
	length := 0
	for _, r := range sorted {
		if r.day <= 0 {
			continue
		}
		for _, f := range fields {
			if Reported(f(r.raw)) {
				length = r.day
				break
			}
		}
	}
	if length == 0 {
		length = maxDay(sorted, maxMonthLength)
	}
	return clamp(length, minMonthLength, maxMonthLength)
}

// maxDay returns the largest positive day, or fallback when there is none.
func maxDay(sorted []dayRow, fallback int) int {
	best := 0
	for _, r := range sorted {
		if r.day > best {
			best = r.day
		}
	}
	if best == 0 {
		return fallback
	}
	return best
}

// dailySeries builds a dense per-day array of length n; index i holds day i+1.
// Missing days stay 0.
func dailySeries(byDay map[int]model.ParsedDay, n int, amount parsedAmount) []float64 {
	daily := make([]float64, n)
	for i := range daily {
		if p, ok := byDay[i+1]; ok {
			daily[i] = amount(p)
		}
	}
	return daily
}

func cumulative(daily []float64) []float64 {
	cum := make([]float64, len(daily))
	total := 0.0
	for i, v := range daily {
		total += v
		cum[i] = total
	}
	return cum
}

// valueAt samples a cumulative series at x percent of the month, linearly
// interpolating between the two bracketing day totals.
func valueAt(cum []float64, x int) float64 {
	n := len(cum)
	p := float64(x) / 100
	if p <= 0 || n == 0 {
		return 0
	}
	if p >= 1 {
		return cum[n-1]
	}

	dayFloat := p * float64(n)
	lo := int(math.Floor(dayFloat))
	hi := lo + 1
	if hi > n {
		hi = n
	}

	loVal := 0.0
	if lo-1 >= 0 {
		loVal = cum[lo-1]
	}
	hiVal := loVal
	if hi-1 >= 0 && hi-1 < n {
		hiVal = cum[hi-1]
	}
	if hi == lo {
		return hiVal
	}
	return loVal + (hiVal-loVal)*(dayFloat-float64(lo))
}

func progressPercent(day, length int) int {
	if length <= 0 {
		return 0
	}
	return int(math.Round(float64(day) / float64(length) * 100))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
