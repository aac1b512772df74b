package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvUpstreamURL         = "POLLEN_UPSTREAM_URL"
	EnvUpstreamToken       = "POLLEN_UPSTREAM_TOKEN"
	EnvUpstreamTokenSecret = "POLLEN_UPSTREAM_TOKEN_SECRET_ARN"
	EnvProxyURL            = "POLLEN_PROXY_URL"
	EnvLogLevel            = "LOG_LEVEL"
)

var (
	// ErrMissingUpstreamURL means no upstream URL was configured.
	ErrMissingUpstreamURL = errors.New("config: upstream url is not configured (set POLLEN_UPSTREAM_URL or upstream.url)")
	// ErrMissingUpstreamToken means no upstream bearer token could be resolved.
	ErrMissingUpstreamToken = errors.New("config: upstream token is not configured (set POLLEN_UPSTREAM_TOKEN, upstream.token or upstream.token_secret_arn)")
)

// Config holds all pollen configuration.
type Config struct {
	Upstream   UpstreamConfig   `toml:"upstream"`
	Server     ServerConfig     `toml:"server"`
	Dashboard  DashboardConfig  `toml:"dashboard"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// UpstreamConfig describes the monthly-performance API the proxy calls.
type UpstreamConfig struct {
	URL            string `toml:"url,omitempty"`
	Token          string `toml:"token,omitempty"`
	TokenSecretARN string `toml:"token_secret_arn,omitempty"`
	TimeoutSec     int    `toml:"timeout_sec"`
}

// ServerConfig holds proxy listener settings.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowOrigins   []string `toml:"allow_origins"`
	RequestsPerSec float64  `toml:"requests_per_sec"`
	Burst          int      `toml:"burst"`
}

// DashboardConfig holds dashboard refresh and reload settings.
type DashboardConfig struct {
	ProxyURL           string `toml:"proxy_url"`
	RefreshIntervalSec int    `toml:"refresh_interval_sec"`
	ReplayIntervalSec  int    `toml:"replay_interval_sec"`
	MaxReloads         int    `toml:"max_reloads"`
	ReloadDelaySec     int    `toml:"reload_delay_sec"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
	File  string `toml:"file,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Upstream: UpstreamConfig{
			TimeoutSec: 15,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			AllowOrigins:   []string{"*"},
			RequestsPerSec: 5,
			Burst:          10,
		},
		Dashboard: DashboardConfig{
			ProxyURL:           "http://127.0.0.1:8787",
			RefreshIntervalSec: 3600,
			ReplayIntervalSec:  300,
			MaxReloads:         3,
			ReloadDelaySec:     10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pollen")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pollen")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top.
func Load() (Config, error) {
	cfg, err := LoadFile(ConfigPath())
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// LoadFile reads a config file at path over the defaults. A missing file is
// not an error.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvUpstreamURL); v != "" {
		cfg.Upstream.URL = v
	}
	if v := os.Getenv(EnvUpstreamTokenSecret); v != "" {
		cfg.Upstream.TokenSecretARN = v
	}
	if v := os.Getenv(EnvProxyURL); v != "" {
		cfg.Dashboard.ProxyURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetUpstreamURL returns the upstream URL or ErrMissingUpstreamURL.
func GetUpstreamURL(cfg Config) (string, error) {
	if v := os.Getenv(EnvUpstreamURL); v != "" {
		return v, nil
	}
	if cfg.Upstream.URL == "" {
		return "", ErrMissingUpstreamURL
	}
	return cfg.Upstream.URL, nil
}

// UpstreamTimeout returns the configured upstream timeout.
func (c Config) UpstreamTimeout() time.Duration {
	if c.Upstream.TimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Upstream.TimeoutSec) * time.Second
}

// RefreshInterval returns the dashboard refresh interval.
func (c Config) RefreshInterval() time.Duration {
	return seconds(c.Dashboard.RefreshIntervalSec, time.Hour)
}

// ReplayInterval returns the reveal replay interval. Zero disables replay.
func (c Config) ReplayInterval() time.Duration {
	if c.Dashboard.ReplayIntervalSec <= 0 {
		return 0
	}
	return time.Duration(c.Dashboard.ReplayIntervalSec) * time.Second
}

// ReloadDelay returns the delay before a reload after a failed fetch.
func (c Config) ReloadDelay() time.Duration {
	return seconds(c.Dashboard.ReloadDelaySec, 10*time.Second)
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// MaskToken hides all but the last four characters of a secret.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

