// Package tui provides the interactive Bubble Tea dashboard for pollen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/haledesignstudio/Pollen/internal/cli"
	"github.com/haledesignstudio/Pollen/internal/dashboard"
	"github.com/haledesignstudio/Pollen/internal/logger"
	"github.com/haledesignstudio/Pollen/internal/tui/components"
	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

// FetchedMsg carries the outcome of one fetch. Gen is the fetch number the
// app assigned when it started the fetch.
type FetchedMsg struct {
	Gen    uint64
	Result dashboard.Result
	Err    error
}

type refreshTickMsg struct{}

type replayTickMsg struct{}

// reloadMsg asks for a full reload: loading overlay, fetch, reveal.
type reloadMsg struct{}

// Options configures the dashboard.
type Options struct {
	Source          dashboard.Source
	RefreshInterval time.Duration
	ReplayInterval  time.Duration // 0 disables replay
	ReloadDelay     time.Duration
	MaxReloads      int
}

// App is the root Bubble Tea model.
type App struct {
	opts   Options
	ctrl   *dashboard.Controller
	reload *dashboard.ReloadPolicy
	log    *zap.Logger

	// Data
	result    dashboard.Result
	hasData   bool
	lastFetch time.Time

	// Fetch state
	fetchGen uint64
	fetching bool
	animate  bool // reveal the next successful fetch
	err      error
	gaveUp   bool

	// UI state
	reveal  Reveal
	spinner spinner.Model
	width   int
	height  int
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	minChartHeight   = 6
)

// NewApp creates a new dashboard model.
func NewApp(opts Options) App {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Hour
	}
	if opts.ReloadDelay <= 0 {
		opts.ReloadDelay = 10 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:    opts,
		ctrl:    dashboard.NewController(opts.Source),
		reload:  dashboard.NewReloadPolicy(opts.ReloadDelay, opts.MaxReloads),
		log:     logger.Log,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		func() tea.Msg { return reloadMsg{} },
		refreshTickCmd(a.opts.RefreshInterval),
		replayTickCmd(a.opts.ReplayInterval),
	)
}

// Close cancels any in-flight fetch.
func (a App) Close() {
	a.ctrl.Close()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			a.ctrl.Close()
			return a, tea.Quit
		case "r":
			return a.startReload()
		}
		return a, nil

	case reloadMsg:
		return a.startReload()

	case refreshTickMsg:
		next := refreshTickCmd(a.opts.RefreshInterval)
		if a.gaveUp {
			// Only a manual reload fetches once the reload budget is spent.
			return a, next
		}
		var cmd tea.Cmd
		a, cmd = a.startFetch(false)
		return a, tea.Batch(cmd, next)

	case replayTickMsg:
		next := replayTickCmd(a.opts.ReplayInterval)
		if a.gaveUp {
			return a, next
		}
		var cmd tea.Cmd
		a, cmd = a.startFetch(true)
		return a, tea.Batch(cmd, next)

	case FetchedMsg:
		return a.handleFetched(msg)

	case frameMsg:
		if !a.reveal.Animating() {
			return a, nil
		}
		a.reveal = a.reveal.Step(a.cardTargets())
		if a.reveal.Animating() {
			return a, frameCmd()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// startReload shows the loading overlay and fetches with a fresh reveal.
func (a App) startReload() (App, tea.Cmd) {
	a.reveal = Reveal{}
	return a.startFetch(true)
}

func (a App) startFetch(animate bool) (App, tea.Cmd) {
	a.fetchGen++
	a.fetching = true
	a.animate = animate
	gen := a.fetchGen
	ctrl := a.ctrl

	return a, func() tea.Msg {
		res, err := ctrl.Fetch(context.Background())
		return FetchedMsg{Gen: gen, Result: res, Err: err}
	}
}

func (a App) handleFetched(msg FetchedMsg) (App, tea.Cmd) {
	if msg.Gen != a.fetchGen || errors.Is(msg.Err, dashboard.ErrSuperseded) {
		return a, nil
	}
	a.fetching = false

	if msg.Err != nil {
		a.err = msg.Err
		a.log.Warn("fetch failed", zap.Uint64("gen", msg.Gen), zap.Error(msg.Err))

		if !a.hasData {
			a.result = dashboard.Fallback()
		}
		a.reveal = a.reveal.Done()

		delay, ok := a.reload.OnFailure()
		if !ok {
			a.gaveUp = true
			a.log.Error("giving up automatic reloads", zap.Error(msg.Err))
			return a, nil
		}
		return a, tea.Tick(delay, func(time.Time) tea.Msg { return reloadMsg{} })
	}

	a.reload.OnSuccess()
	a.err = nil
	a.gaveUp = false
	a.result = msg.Result
	a.hasData = true
	a.lastFetch = msg.Result.FetchedAt
	a.log.Info("fetch complete",
		zap.Uint64("gen", msg.Gen),
		zap.Int("today", msg.Result.Dataset.Meta.TodayDayIndex),
		zap.Int("progress", msg.Result.Dataset.Meta.TodayProgressPercent),
	)

	if a.animate || a.reveal.Phase == PhaseLoading {
		a.reveal = a.reveal.Start()
		return a, frameCmd()
	}
	return a, nil
}

// cards builds the summary cards from the current result.
func (a App) cards() []components.Card {
	t := theme.Active
	c := a.result.Cards
	meta := a.result.Dataset.Meta
	return []components.Card{
		{
			Label: "This month",
			Value: c.Today,
			Delta: fmt.Sprintf("Day %d of %d", meta.TodayDayIndex, meta.CurrentMonthLength),
			Color: t.Current,
		},
		{
			Label: "Last year, same point",
			Value: c.LastYearSameProgress,
			Delta: fmt.Sprintf("At %d%% of the month", meta.TodayProgressPercent),
			Color: t.LastYear,
		},
		{
			Label: "Gap to record",
			Value: c.RecordGap,
			Delta: "Record month " + c.RecordFinal,
			Color: t.Record,
		},
	}
}

func (a App) cardTargets() []string {
	cards := a.cards()
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Value
	}
	return out
}

func (a App) contentWidth() int {
	w := a.width
	if w > maxContentWidth {
		w = maxContentWidth
	}
	return w
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.reveal.Phase == PhaseLoading {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	return fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  pollen needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ pollen"))
	b.WriteString(subtitleStyle.Render(" · Monthly performance"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Fetching this month's figures..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.contentWidth()
	meta := a.result.Dataset.Meta

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	header := titleStyle.Render(" ◈ pollen") +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(" · Monthly performance") +
		"   " +
		components.MonthProgress(meta.TodayDayIndex, meta.CurrentMonthLength, meta.TodayProgressPercent, 20)

	cards := a.cards()
	values, shown := a.reveal.CardValues(a.cardTargets())
	for i := range cards {
		cards[i].Value = values[i]
	}
	cardRow := components.MetricCardRow(cards, w, shown)

	chartOuterH := a.height - lipgloss.Height(header) - lipgloss.Height(cardRow) - 2
	chartH := chartOuterH - 5 // border, title, axis, labels, legend
	if chartH < minChartHeight {
		chartH = minChartHeight
	}
	chart := components.LineChart(a.result.Dataset.Points, a.reveal.ChartPct(), components.CardInnerWidth(w), chartH)
	chartCard := components.ContentCard("Cumulative sales by month progress", chart+"\n"+components.Legend(), w)

	status := ""
	if !a.lastFetch.IsZero() {
		status = "Updated " + cli.FormatDuration(time.Since(a.lastFetch)) + " ago"
	}
	if a.fetching {
		status = "Refreshing..."
	}
	errText := ""
	if a.err != nil {
		errText = a.err.Error()
		if a.gaveUp {
			errText += " (press r to retry)"
		}
	}
	statusBar := components.RenderStatusBar(w, status, errText)

	return lipgloss.JoinVertical(lipgloss.Left, header, "", cardRow, chartCard, statusBar)
}

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func replayTickCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return replayTickMsg{}
	})
}
