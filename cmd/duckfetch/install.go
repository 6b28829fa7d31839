// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/duckfetch/duckfetch/internal/extract"
	"github.com/duckfetch/duckfetch/internal/install"
	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/pipeline"
	"github.com/duckfetch/duckfetch/internal/release"
)

// stageMessages are the progress lines printed as a run advances.
var stageMessages = map[pipeline.State]string{
	pipeline.VersionChecked: "version found",
	pipeline.Downloaded:     "archive downloaded",
	pipeline.Extracted:      "archive extracted",
}

// newInstallCommand creates `duckfetch install [version]`.
func newInstallCommand(app *App) *cobra.Command {
	var installDir string

	cmd := &cobra.Command{
		Use:   "install [version]",
		Short: "Install a DuckDB CLI release",
		Long: `Install a DuckDB CLI release.

Without a version, the published versions are listed and one is picked
interactively (Esc or Ctrl+C cancels). The duckdb executable is placed in
--install-dir, the configured install_dir, or ~/.local/bin, replacing any
previous copy.`,
		Example: `  duckfetch install
  duckfetch install v1.1.0
  duckfetch install v1.1.0 --install-dir /opt/duckdb/bin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 1 {
				version = args[0]
			}
			return app.install(cmd, version, installDir)
		},
	}
	cmd.Flags().StringVar(&installDir, "install-dir", "", "directory to install duckdb into (default ~/.local/bin)")
	return cmd
}

func (a *App) install(cmd *cobra.Command, version, installDirFlag string) error {
	ctx := cmd.Context()

	s, err := a.session(cmd)
	if err != nil {
		return err
	}
	dir, err := s.installDir(installDirFlag)
	if err != nil {
		return err
	}

	src, err := s.newSource()
	if err != nil {
		return err
	}
	var source release.Source = src

	if version == "" {
		catalog, err := src.Fetch(ctx)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("list releases").
				WithResource(s.cfg.Repository.Owner + "/" + s.cfg.Repository.Name).
				Wrap(err).
				WithKindSuggestions().
				BuildError()
		}
		version, err = a.Picker(ctx, catalog.List(), a.tuiConfig(s))
		if err != nil {
			return issue.WrapWithOperation(err, "choose a version")
		}
		// the prompt already listed the releases; validate against that list
		source = release.StaticSource{Catalog: catalog}
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(s.logger),
		pipeline.WithObserver(func(from, to pipeline.State) {
			s.logger.Debug("install state", "from", from, "to", to)
			if msg, ok := stageMessages[to]; ok {
				fmt.Fprintln(a.stdout, SubtitleStyle.Render("  • "+msg))
			}
		}),
	}
	if dir != "" {
		opts = append(opts, pipeline.WithInstallDir(dir))
	}

	orch := pipeline.New(
		source,
		s.newFetcher(),
		extract.New(extract.WithLogger(s.logger)),
		install.New(install.WithLogger(s.logger)),
		opts...,
	)

	fmt.Fprintf(a.stdout, "Installing duckdb %s\n", CmdStyle.Render(version))
	res, err := orch.Run(ctx, version)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("install duckdb " + version).
			WithResource(dir).
			Wrap(err).
			WithKindSuggestions().
			BuildError()
	}

	verified := ""
	if res.Verified {
		verified = " (checksum verified)"
	}
	fmt.Fprintf(a.stdout, "%s duckdb %s to %s%s in %s\n",
		SuccessStyle.Render("Installed"),
		CmdStyle.Render(res.Version),
		CmdStyle.Render(res.InstallPath),
		verified,
		res.Duration.Round(10*time.Millisecond),
	)
	return nil
}
