package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	path := flagConfigPath
	if path == "" {
		path = config.ConfigPath()
	}

	// Edit the file's own values so env overrides are not persisted.
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	vals := tui.NewSetupValues(fileCfg)
	if err := tui.NewSetupForm(&vals, fileCfg.Upstream.Token != "").Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	vals.Apply(&fileCfg)

	if flagConfigPath == "" {
		err = config.Save(fileCfg)
	} else {
		err = config.SaveFile(path, fileCfg)
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `pollen setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
