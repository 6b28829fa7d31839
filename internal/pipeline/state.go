// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"strings"

	"github.com/duckfetch/duckfetch/internal/issue"
)

const (
	// Idle is the state before Run starts work.
	Idle State = iota
	// VersionChecked means the requested tag is published.
	VersionChecked
	// Downloaded means the archive is in the temp scope.
	Downloaded
	// Extracted means the archive is unpacked in the temp scope.
	Extracted
	// Installed is the terminal success state.
	Installed
	// Failed is the terminal failure state.
	Failed
)

type (
	// State is a pipeline stage.
	State int

	// StageError wraps the failure that stopped a run.
	StageError struct {
		// State is the last state reached before the failure.
		State State
		Err   error
	}

	// UnknownVersionError reports a tag that is not published, with the
	// tags that are, most recent first.
	UnknownVersionError struct {
		Requested string
		Valid     []string
	}
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case VersionChecked:
		return "version-checked"
	case Downloaded:
		return "downloaded"
	case Extracted:
		return "extracted"
	case Installed:
		return "installed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (e *StageError) Error() string {
	return fmt.Sprintf("install failed after %s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *UnknownVersionError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("unknown version %q: no releases are published", e.Requested)
	}
	return fmt.Sprintf("unknown version %q, valid versions: %s", e.Requested, strings.Join(e.Valid, ", "))
}

func (e *UnknownVersionError) Unwrap() error { return issue.ErrUnknownVersion }
