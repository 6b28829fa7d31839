// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duckfetch/duckfetch/internal/issue"
)

// newListCommand creates `duckfetch list`.
func newListCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published DuckDB versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.list(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many versions (0 shows all)")
	return cmd
}

func (a *App) list(cmd *cobra.Command, limit int) error {
	s, err := a.session(cmd)
	if err != nil {
		return err
	}
	src, err := s.newSource()
	if err != nil {
		return err
	}

	catalog, err := src.Fetch(cmd.Context())
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("list releases").
			WithResource(s.cfg.Repository.Owner + "/" + s.cfg.Repository.Name).
			Wrap(err).
			WithKindSuggestions().
			BuildError()
	}

	releases := catalog.Releases()
	if len(releases) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("No releases are published."))
		return nil
	}
	if limit > 0 && limit < len(releases) {
		releases = releases[:limit]
	}

	for i, rel := range releases {
		line := CmdStyle.Render(fmt.Sprintf("%-10s", rel.Tag))
		if !rel.PublishedAt.IsZero() {
			line += "  " + SubtitleStyle.Render(rel.PublishedAt.Format("2006-01-02"))
		}
		if rel.Prerelease {
			line += "  " + WarningStyle.Render("(prerelease)")
		}
		if i == 0 {
			line += "  " + SuccessStyle.Render("(latest)")
		}
		fmt.Fprintln(a.stdout, line)
	}
	return nil
}
