// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/tui"
)

const (
	// ExitUser is returned for failures the user can fix: a wrong version,
	// an unsupported platform, an unwritable or unresolvable directory, bad
	// configuration or usage.
	ExitUser = 1
	// ExitFailure is returned for network, archive and disk failures.
	ExitFailure = 2
	// ExitInterrupted is returned when the user cancels a prompt or presses
	// Ctrl+C.
	ExitInterrupted = 130
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps an error returned by a command onto the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, tui.ErrCancelled) || errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	switch kind := issue.KindOf(err); kind {
	case issue.KindUnknownVersion, issue.KindAssetNotFound, issue.KindHomeDirUnknown, issue.KindPermission, issue.KindUnknown:
		return ExitUser
	case issue.KindNetwork, issue.KindParse, issue.KindCorruptArchive, issue.KindIO, issue.KindSourceMissing:
		return ExitFailure
	default:
		return ExitFailure
	}
}
