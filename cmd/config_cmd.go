// Package cmd implements the pollen CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haledesignstudio/Pollen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := flagConfigPath
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Printf("  Config file: %s\n", path)
	if flagConfigPath == "" && !config.Exists() {
		fmt.Println("  Status: using defaults (no config file)")
	} else {
		fmt.Println("  Status: loaded")
	}
	fmt.Println()

	fmt.Println("  [Upstream]")
	if cfg.Upstream.URL != "" {
		fmt.Printf("    URL:          %s\n", cfg.Upstream.URL)
	} else {
		fmt.Println("    URL:          not configured")
	}
	switch {
	case os.Getenv(config.EnvUpstreamToken) != "":
		fmt.Printf("    Token:        %s (from %s)\n", config.MaskToken(os.Getenv(config.EnvUpstreamToken)), config.EnvUpstreamToken)
	case cfg.Upstream.Token != "":
		fmt.Printf("    Token:        %s\n", config.MaskToken(cfg.Upstream.Token))
	default:
		fmt.Println("    Token:        not configured")
	}
	if cfg.Upstream.TokenSecretARN != "" {
		fmt.Printf("    Token secret: %s\n", cfg.Upstream.TokenSecretARN)
	}
	fmt.Printf("    Timeout:      %s\n", cfg.UpstreamTimeout())
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:      %s\n", cfg.Server.Addr)
	fmt.Printf("    CORS origins: %s\n", strings.Join(cfg.Server.AllowOrigins, ", "))
	fmt.Printf("    Rate limit:   %.1f req/s (burst %d)\n", cfg.Server.RequestsPerSec, cfg.Server.Burst)
	fmt.Println()

	fmt.Println("  [Dashboard]")
	fmt.Printf("    Proxy URL:    %s\n", cfg.Dashboard.ProxyURL)
	fmt.Printf("    Refresh:      %s\n", cfg.RefreshInterval())
	if d := cfg.ReplayInterval(); d > 0 {
		fmt.Printf("    Replay:       %s\n", d)
	} else {
		fmt.Println("    Replay:       off")
	}
	fmt.Printf("    Reloads:      %d, %s apart\n", cfg.Dashboard.MaxReloads, cfg.ReloadDelay())
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Printf("    JSON:  %v\n", cfg.Log.JSON)
	if cfg.Log.File != "" {
		fmt.Printf("    File:  %s\n", cfg.Log.File)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `pollen setup` to reconfigure.")
	return nil
}
