// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duckfetch/duckfetch/internal/envcheck"
	"github.com/duckfetch/duckfetch/internal/issue"
)

var errCheckFailed = errors.New("environment check failed")

// newCheckCommand creates `duckfetch check`.
func newCheckCommand(app *App) *cobra.Command {
	var installDir string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check this machine for installing DuckDB",
		Long: `Check this machine for installing DuckDB.

Reports the platform, whether the install directory is usable and on PATH,
the free disk space there, and any duckdb already on PATH. Exits non-zero
when a check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.check(cmd, installDir)
		},
	}
	cmd.Flags().StringVar(&installDir, "install-dir", "", "directory to check (default ~/.local/bin)")
	return cmd
}

func (a *App) check(cmd *cobra.Command, installDirFlag string) error {
	s, err := a.session(cmd)
	if err != nil {
		return err
	}
	dir, err := s.installDir(installDirFlag)
	if err != nil {
		return err
	}

	opts := []envcheck.Option{envcheck.WithLogger(s.logger)}
	if dir != "" {
		opts = append(opts, envcheck.WithInstallDir(dir))
	}
	report, err := envcheck.New(opts...).Run(cmd.Context())
	if err != nil {
		return issue.WrapWithOperation(err, "check environment")
	}

	for _, c := range report.Checks {
		fmt.Fprintf(a.stdout, "%s %-12s %s\n", statusBadge(c.Status), c.Name, c.Detail)
	}

	if report.Failed() {
		return &ExitError{Code: ExitUser, Err: errCheckFailed}
	}
	return nil
}

func statusBadge(s envcheck.Status) string {
	style := SuccessStyle
	switch s {
	case envcheck.StatusWarn:
		style = WarningStyle
	case envcheck.StatusFail:
		style = ErrorStyle
	}
	return style.Inherit(statusStyle).Render(s.String())
}
