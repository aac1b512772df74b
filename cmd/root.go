package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/logger"
	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

var (
	flagConfigPath string
	flagLogLevel   string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pollen",
	Short: "Monthly sales-performance dashboard",
	Long: "Track this month's cumulative sales against last year and the record month.\n" +
		"Run `pollen serve` for the proxy and `pollen tui` for the dashboard.",
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	RunE:              runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var (
		loaded config.Config
		err    error
	)
	if flagConfigPath == "" {
		loaded, err = config.Load()
	} else {
		loaded, err = config.LoadFile(flagConfigPath)
		config.ApplyEnv(&loaded)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagLogLevel != "" {
		loaded.Log.Level = flagLogLevel
	}

	cfg = loaded
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

// initLogging installs the process logger. fallbackFile is used when the
// config names no log file; empty means stderr.
func initLogging(fallbackFile string) error {
	file := cfg.Log.File
	if file == "" {
		file = fallbackFile
	}
	return logger.Init(logger.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		File:  file,
	})
}
