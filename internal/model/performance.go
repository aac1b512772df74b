// Package model defines the data types for the monthly performance feed.
package model

// RawRow is one calendar day of the upstream monthly-performance feed.
type RawRow struct {
	BaseDay            Cell `json:"baseDay"`
	CurrentMonthAmount Cell `json:"currentMonthAmount"`
	RecordMonthAmount  Cell `json:"recordMonthAmount"`
	LastYearAmount     Cell `json:"lastYearAmount"`
}

// ParsedDay is a sanitized row. Amounts are never negative.
type ParsedDay struct {
	Day      int
	Current  float64
	Record   float64
	LastYear float64
}

// SeriesMeta describes how the series were aligned onto the progress axis.
type SeriesMeta struct {
	CurrentMonthLength   int `json:"currentMonthLength"`
	RecordMonthLength    int `json:"recordMonthLength"`
	TodayDayIndex        int `json:"todayDayIndex"`
	TodayProgressPercent int `json:"todayProgressPercent"`
}

// ChartPoint is one integer percent of month progress.
// CurrentValue is nil past today's progress.
type ChartPoint struct {
	ProgressPercent int      `json:"progressPercent"`
	CurrentValue    *float64 `json:"currentValue,omitempty"`
	LastYearValue   float64  `json:"lastYearValue"`
	RecordValue     float64  `json:"recordValue"`
}

// HasCurrent reports whether the current-month series reaches this point.
func (p ChartPoint) HasCurrent() bool {
	return p.CurrentValue != nil
}

// Current returns the current-month value, or 0 when absent.
func (p ChartPoint) Current() float64 {
	if p.CurrentValue == nil {
		return 0
	}
	return *p.CurrentValue
}

// Dataset is the normalized chart payload produced for every fetch.
type Dataset struct {
	Points []ChartPoint `json:"points"`
	Meta   SeriesMeta   `json:"meta"`
}

// PointAt returns the point at the given progress percent.
func (d Dataset) PointAt(progress int) (ChartPoint, bool) {
	for _, p := range d.Points {
		if p.ProgressPercent == progress {
			return p, true
		}
	}
	return ChartPoint{}, false
}

// Summary holds the scalar values shown on the summary cards.
type Summary struct {
	TodayValue           float64 `json:"todayValue"`
	LastYearSameProgress float64 `json:"lastYearSameProgressValue"`
	RecordSameProgress   float64 `json:"recordSameProgressValue"`
	RecordFinal          float64 `json:"recordFinalValue"`
	RecordGap            float64 `json:"recordGapValue"`
}

// SummaryCards is Summary formatted for display.
type SummaryCards struct {
	Today                string `json:"today"`
	LastYearSameProgress string `json:"lastYearSameProgress"`
	RecordSameProgress   string `json:"recordSameProgress"`
	RecordFinal          string `json:"recordFinal"`
	RecordGap            string `json:"recordGap"`
}
