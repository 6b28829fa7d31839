// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"golang.org/x/term"

	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/tui"
)

// handleError is the fang error handler: a one-line message with
// remediation bullets, plus the troubleshooting guide in verbose mode.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	if errors.Is(err, tui.ErrCancelled) {
		fmt.Fprintln(w, WarningStyle.Render("Cancelled."))
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))

	if !a.verbose {
		return
	}
	kind := issue.KindOf(err)
	if kind == issue.KindUnknown {
		return
	}
	rendered, rerr := issue.GuideFor(kind).Render(glamourStyle(w, a.colorScheme))
	if rerr != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method. Other
// classified errors get the remediation hints for their kind.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}

	var msg strings.Builder
	msg.WriteString(err.Error())
	if kind := issue.KindOf(err); kind != issue.KindUnknown {
		msg.WriteString("\n")
		for _, s := range issue.Suggestions(kind) {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}
	return msg.String()
}

// glamourStyle picks "notty" for pipes and files, otherwise the configured
// scheme ("dark", "light" or "auto").
func glamourStyle(w io.Writer, scheme string) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "notty"
	}
	switch scheme {
	case "dark", "light":
		return scheme
	default:
		return "auto"
	}
}
