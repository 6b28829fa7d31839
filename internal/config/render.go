// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// tomlView is the shape printed by RenderTOML. The token is never shown.
type tomlView struct {
	Repository         RepositoryConfig `toml:"repository"`
	APIURL             string           `toml:"api_url"`
	InstallDir         string           `toml:"install_dir,omitempty"`
	IncludePrereleases bool             `toml:"include_prereleases"`
	HTTPTimeout        string           `toml:"http_timeout"`
	LogLevel           LogLevel         `toml:"log_level"`
	GitHubToken        string           `toml:"github_token,omitempty"`
	UI                 UIConfig         `toml:"ui"`
}

// GenerateCUE renders cfg as a config.cue file. The token is omitted.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// duckfetch configuration\n")
	sb.WriteString("// Environment variables prefixed with DUCKFETCH_ override these values.\n\n")

	sb.WriteString("repository: {\n")
	fmt.Fprintf(&sb, "\towner: %q\n", cfg.Repository.Owner)
	fmt.Fprintf(&sb, "\tname:  %q\n", cfg.Repository.Name)
	sb.WriteString("}\n\n")

	fmt.Fprintf(&sb, "api_url: %q\n", cfg.APIURL)
	if cfg.InstallDir != "" {
		fmt.Fprintf(&sb, "install_dir: %q\n", cfg.InstallDir)
	} else {
		sb.WriteString("// install_dir: \"~/.local/bin\"\n")
	}
	fmt.Fprintf(&sb, "include_prereleases: %v\n", cfg.IncludePrereleases)
	fmt.Fprintf(&sb, "http_timeout: %q\n", cfg.HTTPTimeout.String())
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\taccessible:   %v\n", cfg.UI.Accessible)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

// RenderTOML renders cfg as TOML. A configured token is shown as "<set>".
func RenderTOML(cfg *Config) (string, error) {
	view := tomlView{
		Repository:         cfg.Repository,
		APIURL:             cfg.APIURL,
		InstallDir:         cfg.InstallDir,
		IncludePrereleases: cfg.IncludePrereleases,
		HTTPTimeout:        cfg.HTTPTimeout.String(),
		LogLevel:           cfg.LogLevel,
		UI:                 cfg.UI,
	}
	if cfg.GitHubToken != "" {
		view.GitHubToken = "<set>"
	}

	out, err := toml.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("rendering config as TOML: %w", err)
	}
	return string(out), nil
}
