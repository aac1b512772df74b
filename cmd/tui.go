package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/haledesignstudio/Pollen/internal/dashboard"
	"github.com/haledesignstudio/Pollen/internal/logger"
	"github.com/haledesignstudio/Pollen/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// The alt screen owns the terminal, so logs go to a file.
	if err := initLogging(logger.DefaultFile()); err != nil {
		return err
	}

	src := dashboard.NewProxyClient(cfg.Dashboard.ProxyURL)
	if src == nil {
		return dashboard.ErrNoProxyURL
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		Source:          src,
		RefreshInterval: cfg.RefreshInterval(),
		ReplayInterval:  cfg.ReplayInterval(),
		ReloadDelay:     cfg.ReloadDelay(),
		MaxReloads:      cfg.Dashboard.MaxReloads,
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
