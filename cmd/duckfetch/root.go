// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for duckfetch.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "duckfetch",
		Short: "Install the DuckDB command-line client from GitHub releases",
		Long: TitleStyle.Render("duckfetch") + SubtitleStyle.Render(" - install the DuckDB CLI") + `

duckfetch lists the published DuckDB releases, downloads the CLI archive
for this machine and installs the duckdb executable into ~/.local/bin.

` + SubtitleStyle.Render("Examples:") + `
  duckfetch list                 Show published versions, newest first
  duckfetch install              Pick a version interactively
  duckfetch install v1.1.0       Install a specific version
  duckfetch check                Inspect this machine before installing
  duckfetch config show          Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(app.stdin)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is <config dir>/duckfetch/config.cue)")

	root.AddCommand(
		newListCommand(app),
		newCheckCommand(app),
		newInstallCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	)
	os.Exit(exitCodeFor(err))
}
