// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	// ColorSchemeAuto picks dark or light from the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// ColorScheme is the terminal palette preference.
	ColorScheme string

	// LogLevel is the minimum level written to stderr.
	LogLevel string

	// RepositoryConfig names the GitHub repository to list releases from.
	RepositoryConfig struct {
		Owner string `mapstructure:"owner" toml:"owner"`
		Name  string `mapstructure:"name" toml:"name"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		Verbose     bool        `mapstructure:"verbose" toml:"verbose"`
		Accessible  bool        `mapstructure:"accessible" toml:"accessible"`
		ColorScheme ColorScheme `mapstructure:"color_scheme" toml:"color_scheme"`
	}

	// Config is the effective configuration.
	Config struct {
		Repository         RepositoryConfig `mapstructure:"repository"`
		APIURL             string           `mapstructure:"api_url"`
		GitHubToken        string           `mapstructure:"github_token"`
		InstallDir         string           `mapstructure:"install_dir"`
		IncludePrereleases bool             `mapstructure:"include_prereleases"`
		HTTPTimeout        time.Duration    `mapstructure:"http_timeout"`
		LogLevel           LogLevel         `mapstructure:"log_level"`
		UI                 UIConfig         `mapstructure:"ui"`
	}
)

// DefaultConfig returns the built-in defaults. InstallDir is empty, meaning
// <home>/.local/bin.
func DefaultConfig() *Config {
	return &Config{
		Repository:  RepositoryConfig{Owner: "duckdb", Name: "duckdb"},
		APIURL:      "https://api.github.com",
		HTTPTimeout: 60 * time.Second,
		LogLevel:    LogLevelWarn,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid reports whether s is a known scheme.
func (s ColorScheme) IsValid() bool {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true
	}
	return false
}

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// Validate checks constraints that environment overrides can break after the
// file has passed the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	if c.Repository.Owner == "" || c.Repository.Name == "" {
		errs = append(errs, fmt.Errorf("repository: owner and name are required"))
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url: %q is not an absolute URL", c.APIURL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout: must be positive, got %s", c.HTTPTimeout))
	}
	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	if !c.UI.ColorScheme.IsValid() {
		errs = append(errs, fmt.Errorf("ui.color_scheme: unknown scheme %q", c.UI.ColorScheme))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
