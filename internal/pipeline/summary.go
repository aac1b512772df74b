package pipeline

import (
	"github.com/haledesignstudio/Pollen/internal/cli"
	"github.com/haledesignstudio/Pollen/internal/model"
)

// Summarize derives the summary-card values from a normalized dataset.
// Values are read at today's progress point; the record total is read at
// 100%. Missing points read as 0.
func Summarize(ds model.Dataset) model.Summary {
	var s model.Summary

	if p, ok := ds.PointAt(ds.Meta.TodayProgressPercent); ok {
		s.TodayValue = p.Current()
		s.LastYearSameProgress = p.LastYearValue
		s.RecordSameProgress = p.RecordValue
	}
	if p, ok := ds.PointAt(100); ok {
		s.RecordFinal = p.RecordValue
	}

	s.RecordGap = s.RecordFinal - s.RecordSameProgress
	if s.RecordGap < 0 {
		s.RecordGap = 0
	}
	return s
}

// Cards formats a summary for display.
func Cards(s model.Summary) model.SummaryCards {
	return model.SummaryCards{
		Today:                cli.FormatMillions(s.TodayValue),
		LastYearSameProgress: cli.FormatMillions(s.LastYearSameProgress),
		RecordSameProgress:   cli.FormatMillions(s.RecordSameProgress),
		RecordFinal:          cli.FormatMillions(s.RecordFinal),
		RecordGap:            cli.FormatMillions(s.RecordGap),
	}
}
