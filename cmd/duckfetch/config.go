// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duckfetch/duckfetch/internal/config"
)

// newConfigCommand creates the `duckfetch config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage duckfetch configuration",
		Long: `Manage duckfetch configuration.

Configuration is stored in:
  - Linux: ~/.config/duckfetch/config.cue
  - macOS: ~/Library/Application Support/duckfetch/config.cue
  - Windows: %APPDATA%\duckfetch\config.cue

Every key can be overridden with a DUCKFETCH_ environment variable, for
example DUCKFETCH_API_URL or DUCKFETCH_UI_COLOR_SCHEME. GITHUB_TOKEN is
used for API authentication.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd, format)
		},
	}
	show.Flags().StringVar(&format, "format", "cue", "output format: cue or toml")

	cfgCmd.AddCommand(
		show,
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.showConfigPath()
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create the default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.initConfig()
			},
		},
	)
	return cfgCmd
}

func (a *App) showConfig(cmd *cobra.Command, format string) error {
	var render func(*config.Config) (string, error)
	switch format {
	case "cue":
		render = func(c *config.Config) (string, error) { return config.GenerateCUE(c), nil }
	case "toml":
		render = config.RenderTOML
	default:
		return &ExitError{Code: ExitUser, Err: fmt.Errorf("unsupported format %q (use cue or toml)", format)}
	}

	s, err := a.session(cmd)
	if err != nil {
		return err
	}
	out, err := render(s.cfg.Config)
	if err != nil {
		return err
	}

	source := SubtitleStyle.Render("(defaults and environment)")
	if s.cfg.Path != "" {
		source = CmdStyle.Render(s.cfg.Path)
	}
	fmt.Fprintf(a.stderr, "%s %s\n\n", TitleStyle.Render("Configuration from"), source)
	fmt.Fprint(a.stdout, out)
	return nil
}

func (a *App) showConfigPath() error {
	if a.cfgFile != "" {
		fmt.Fprintln(a.stdout, a.cfgFile)
		return nil
	}
	path, err := config.FilePath("")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *App) initConfig() error {
	path, created, err := config.CreateDefault("")
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(a.stdout, "%s %s\n", WarningStyle.Render("Config file already exists:"), path)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("Created"), path)
	return nil
}
