package tui

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/tui/theme"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	UpstreamURL    string
	UpstreamToken  string
	TokenSecretARN string
	ProxyURL       string
	RefreshMinutes string
	Theme          string
}

// NewSetupValues pre-fills the form from an existing config. The token is
// never pre-filled; leaving it blank keeps the current one.
func NewSetupValues(cfg config.Config) SetupValues {
	return SetupValues{
		UpstreamURL:    cfg.Upstream.URL,
		TokenSecretARN: cfg.Upstream.TokenSecretARN,
		ProxyURL:       cfg.Dashboard.ProxyURL,
		RefreshMinutes: strconv.Itoa(cfg.Dashboard.RefreshIntervalSec / 60),
		Theme:          cfg.Appearance.Theme,
	}
}

// Apply copies the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.Upstream.URL = strings.TrimSpace(v.UpstreamURL)
	if tok := strings.TrimSpace(v.UpstreamToken); tok != "" {
		cfg.Upstream.Token = tok
	}
	cfg.Upstream.TokenSecretARN = strings.TrimSpace(v.TokenSecretARN)
	if p := strings.TrimSpace(v.ProxyURL); p != "" {
		cfg.Dashboard.ProxyURL = p
	}
	if m, err := strconv.Atoi(strings.TrimSpace(v.RefreshMinutes)); err == nil && m > 0 {
		cfg.Dashboard.RefreshIntervalSec = m * 60
	}
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
}

// NewSetupForm builds the interactive setup form writing into vals.
func NewSetupForm(vals *SetupValues, hasToken bool) *huh.Form {
	tokenHint := "Bearer token for the upstream API."
	if hasToken {
		tokenHint += " Leave blank to keep the current one."
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to pollen").
				Description("Point the proxy at your monthly-performance API\nand choose how the dashboard behaves."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Upstream URL").
				Description("Endpoint returning the daily rows as a JSON array.").
				Placeholder("https://api.example.com/monthly-performance").
				Value(&vals.UpstreamURL).
				Validate(validateURL(true)),
			huh.NewInput().
				Title("Upstream token").
				Description(tokenHint).
				EchoMode(huh.EchoModePassword).
				Value(&vals.UpstreamToken),
			huh.NewInput().
				Title("Token secret ARN (optional)").
				Description("AWS Secrets Manager secret holding the token.").
				Value(&vals.TokenSecretARN),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Proxy URL").
				Description("Where the dashboard reaches `pollen serve`.").
				Value(&vals.ProxyURL).
				Validate(validateURL(false)),
			huh.NewInput().
				Title("Refresh interval (minutes)").
				Value(&vals.RefreshMinutes).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithTheme(huh.ThemeBase16())
}

func validateURL(optional bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if optional {
				return nil
			}
			return errors.New("required")
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("must be an http(s) URL")
		}
		return nil
	}
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("must be a positive whole number")
	}
	return nil
}
