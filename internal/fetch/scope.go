// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"fmt"
	"os"

	"github.com/duckfetch/duckfetch/internal/issue"
)

// scopePattern names the per-run temporary directory.
const scopePattern = "duckfetch-*"

// Scope is a temporary directory removed, with everything under it, by Close.
type Scope struct {
	dir    string
	closed bool
}

// NewScope creates a fresh temporary directory under root, or under the
// system temp directory when root is empty.
func NewScope(root string) (*Scope, error) {
	dir, err := os.MkdirTemp(root, scopePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %w", issue.ErrIO, err)
	}
	return &Scope{dir: dir}, nil
}

// Dir returns the scope's root directory.
func (s *Scope) Dir() string {
	return s.dir
}

// Mkdir creates a fresh, empty subdirectory whose name starts with prefix.
func (s *Scope) Mkdir(prefix string) (string, error) {
	if s.closed {
		return "", fmt.Errorf("%w: scope %s already closed", issue.ErrIO, s.dir)
	}
	dir, err := os.MkdirTemp(s.dir, prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating %s dir: %w", issue.ErrIO, prefix, err)
	}
	return dir, nil
}

// Close removes the scope directory. Calling Close more than once is a no-op.
func (s *Scope) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("%w: removing temp dir: %w", issue.ErrIO, err)
	}
	return nil
}
