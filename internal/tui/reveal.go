package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haledesignstudio/Pollen/internal/tui/components"
)

// Phase is a stage of the dashboard reveal sequence.
type Phase int

const (
	PhaseLoading Phase = iota // overlay with spinner, nothing drawn
	PhaseSweep                // chart drawn left to right
	PhaseCards                // cards flap in one at a time
	PhaseIdle                 // everything shown
)

const (
	frameInterval = 40 * time.Millisecond
	sweepStep     = 4 // percent of the x-axis revealed per frame
)

// Reveal tracks the animation state. The zero value is the loading overlay.
type Reveal struct {
	Phase    Phase
	SweepPct int
	Card     int // index of the card currently flapping
	FlapStep int
}

// Start begins the sweep from an empty chart.
func (r Reveal) Start() Reveal {
	return Reveal{Phase: PhaseSweep}
}

// Done returns the fully revealed state.
func (r Reveal) Done() Reveal {
	return Reveal{Phase: PhaseIdle, SweepPct: 100}
}

// Animating reports whether frames are still needed.
func (r Reveal) Animating() bool {
	return r.Phase == PhaseSweep || r.Phase == PhaseCards
}

// Step advances one frame. targets are the final card values.
func (r Reveal) Step(targets []string) Reveal {
	switch r.Phase {
	case PhaseSweep:
		r.SweepPct += sweepStep
		if r.SweepPct >= 100 {
			r.SweepPct = 100
			r.Phase = PhaseCards
			r.Card, r.FlapStep = 0, 0
			if len(targets) == 0 {
				r.Phase = PhaseIdle
			}
		}
	case PhaseCards:
		if r.Card >= len(targets) {
			return r.Done()
		}
		r.FlapStep++
		if r.FlapStep > components.FlapSteps(targets[r.Card]) {
			r.Card++
			r.FlapStep = 0
			if r.Card >= len(targets) {
				return r.Done()
			}
		}
	}
	return r
}

// ChartPct returns how much of the chart is visible.
func (r Reveal) ChartPct() int {
	switch r.Phase {
	case PhaseLoading:
		return 0
	case PhaseSweep:
		return r.SweepPct
	default:
		return 100
	}
}

// CardValues returns what each card shows in this frame and how many cards
// are visible.
func (r Reveal) CardValues(targets []string) ([]string, int) {
	out := make([]string, len(targets))
	switch r.Phase {
	case PhaseIdle:
		copy(out, targets)
		return out, len(targets)
	case PhaseCards:
		for i, t := range targets {
			switch {
			case i < r.Card:
				out[i] = t
			case i == r.Card:
				out[i] = components.Flap(t, r.FlapStep)
			}
		}
		return out, r.Card + 1
	default:
		return out, 0
	}
}

type frameMsg struct{}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}
