package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haledesignstudio/Pollen/internal/cli"
	"github.com/haledesignstudio/Pollen/internal/dashboard"
	"github.com/haledesignstudio/Pollen/internal/logger"
	"github.com/haledesignstudio/Pollen/internal/model"
	"github.com/haledesignstudio/Pollen/internal/proxy"
)

var (
	flagChartDirect bool
	flagChartJSON   bool
)

// chartSampleStep is the progress spacing of the printed table rows.
const chartSampleStep = 10

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Print this month's normalized performance once",
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().BoolVar(&flagChartDirect, "direct", false, "Call the upstream API directly instead of the proxy")
	chartCmd.Flags().BoolVar(&flagChartJSON, "json", false, "Print the full dataset as JSON")
	rootCmd.AddCommand(chartCmd)
}

func chartSource(ctx context.Context) (dashboard.Source, error) {
	if flagChartDirect {
		return dashboard.NewDirectClient(ctx, cfg)
	}
	c := dashboard.NewProxyClient(cfg.Dashboard.ProxyURL)
	if c == nil {
		return nil, dashboard.ErrNoProxyURL
	}
	return c, nil
}

func runChart(_ *cobra.Command, _ []string) error {
	if err := initLogging(""); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, err := chartSource(ctx)
	if err != nil {
		return err
	}
	rows, err := src.FetchRows(ctx)
	if err != nil {
		return fmt.Errorf("fetching rows: %w", err)
	}
	res := dashboard.Build(rows)

	if flagChartJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(proxy.ChartResponse{
			Points:  res.Dataset.Points,
			Meta:    res.Dataset.Meta,
			Summary: res.Summary,
			Cards:   res.Cards,
		})
	}

	printChart(res)
	return nil
}

func printChart(res dashboard.Result) {
	meta := res.Dataset.Meta

	fmt.Println()
	fmt.Println(cli.RenderTitle("Monthly performance"))
	fmt.Println()
	fmt.Printf("  Day %d of %d  %s\n\n",
		meta.TodayDayIndex, meta.CurrentMonthLength,
		cli.RenderMonthProgress(meta.TodayProgressPercent, 30))

	fmt.Print(cli.RenderCards([]cli.Card{
		{Label: "This month", Value: res.Cards.Today},
		{Label: "Last year, same point", Value: res.Cards.LastYearSameProgress},
		{Label: "Record, same point", Value: res.Cards.RecordSameProgress},
		{Label: "Gap to record", Value: res.Cards.RecordGap, Note: "record month " + res.Cards.RecordFinal},
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(sampleTable(res.Dataset)))
	fmt.Println()

	current, lastYear, record, peak := seriesValues(res.Dataset.Points)
	fmt.Printf("  %s  %s\n", cli.SeriesStyle("current").Render("This month  "), cli.RenderSeriesSparkline(current, peak))
	fmt.Printf("  %s  %s\n", cli.SeriesStyle("lastYear").Render("Last year   "), cli.RenderSeriesSparkline(lastYear, peak))
	fmt.Printf("  %s  %s\n", cli.SeriesStyle("record").Render("Record month"), cli.RenderSeriesSparkline(record, peak))
	fmt.Println()

	logger.Log.Debug("chart printed")
}

func sampleTable(ds model.Dataset) cli.Table {
	t := cli.Table{
		Headers: []string{"Progress", "This month", "Last year", "Record"},
	}
	for pct := 0; pct <= 100; pct += chartSampleStep {
		p, ok := ds.PointAt(pct)
		if !ok {
			continue
		}
		current := "-"
		if p.HasCurrent() {
			current = cli.FormatAmount(p.Current())
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(pct) + "%",
			current,
			cli.FormatAmount(p.LastYearValue),
			cli.FormatAmount(p.RecordValue),
		})
	}
	return t
}

// seriesValues splits points into per-series sparkline inputs sampled every
// other percent, plus the shared peak.
func seriesValues(points []model.ChartPoint) (current, lastYear, record []*float64, peak float64) {
	for i, p := range points {
		if i%2 != 0 {
			continue
		}
		if p.HasCurrent() {
			v := p.Current()
			current = append(current, &v)
			peak = max(peak, v)
		} else {
			current = append(current, nil)
		}
		ly, rec := p.LastYearValue, p.RecordValue
		lastYear = append(lastYear, &ly)
		record = append(record, &rec)
		peak = max(peak, ly, rec)
	}
	return current, lastYear, record, peak
}
