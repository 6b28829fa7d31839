// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/platform"
)

var (
	// Test seams.
	rename      = os.Rename
	userHomeDir = os.UserHomeDir
)

type (
	// Installer moves an executable out of an extracted bundle.
	Installer struct {
		name   string
		goos   string
		logger *log.Logger
	}

	// Option configures an Installer.
	Option func(*Installer)
)

// WithPlatform sets the target platform, which decides the executable name
// and whether execute bits apply.
func WithPlatform(p platform.Platform) Option {
	return func(i *Installer) {
		i.name = p.ExecutableName()
		i.goos = p.OS
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// New creates an Installer for the current platform.
func New(opts ...Option) *Installer {
	p := platform.Current()
	i := &Installer{name: p.ExecutableName(), goos: p.OS}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = log.New(io.Discard)
	}
	return i
}

// DefaultDir returns <home>/.local/bin.
func DefaultDir() (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", issue.ErrHomeDirUnknown, err)
	}
	if home == "" {
		return "", issue.ErrHomeDirUnknown
	}
	return filepath.Join(home, ".local", "bin"), nil
}

// Install moves the executable found in extractedDir to installDir,
// overwriting an existing file of the same name, and returns the final path.
// installDir must already exist. Nothing in installDir is modified unless the
// executable was found.
func (i *Installer) Install(extractedDir, installDir string) (string, error) {
	src, err := i.Locate(extractedDir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(installDir)
	if err != nil {
		return "", fmt.Errorf("%w: install directory: %w", issue.ErrIO, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: install directory %s is not a directory", issue.ErrIO, installDir)
	}

	dest := filepath.Join(installDir, i.name)
	if di, err := os.Lstat(dest); err == nil && di.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", issue.ErrIO, dest)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", issue.ErrSourceMissing, err)
	}
	perm := srcInfo.Mode().Perm()
	if i.goos != "windows" {
		perm |= 0o111
		if err := os.Chmod(src, perm); err != nil {
			return "", moveError(err)
		}
	}

	err = rename(src, dest)
	switch {
	case err == nil:
	case isCrossDevice(err):
		i.logger.Debug("rename crosses filesystems, copying", "src", src, "dest", dest)
		if err := copyReplace(src, dest, perm); err != nil {
			return "", err
		}
	default:
		return "", moveError(err)
	}

	i.logger.Debug("installed", "path", dest)
	return dest, nil
}

// Locate finds the executable at the bundle root or, failing that, the first
// regular file with the executable's name in walk order. It returns
// ErrSourceMissing when there is none.
func (i *Installer) Locate(dir string) (string, error) {
	root := filepath.Join(dir, i.name)
	if info, err := os.Lstat(root); err == nil && info.Mode().IsRegular() {
		return root, nil
	}

	var found string
	errStop := errors.New("stop")
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && d.Name() == i.name {
			found = path
			return errStop
		}
		return nil
	})
	if found != "" {
		return found, nil
	}
	if err != nil && !errors.Is(err, errStop) {
		return "", fmt.Errorf("%w: scanning %s: %w", issue.ErrSourceMissing, dir, err)
	}
	return "", fmt.Errorf("%w: no %s in extracted archive", issue.ErrSourceMissing, i.name)
}

// copyReplace copies src into a temp file beside dest, renames it over dest
// and removes src. dest is never left half-written.
func copyReplace(src, dest string, perm fs.FileMode) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return moveError(err)
	}
	defer func() { _ = in.Close() }() // read-only

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return moveError(err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return moveError(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return moveError(err)
	}
	if err := tmp.Sync(); err != nil {
		return moveError(err)
	}
	if err := tmp.Close(); err != nil {
		return moveError(err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return moveError(err)
	}

	// dest is complete; a leftover source only lives until the scope is removed.
	_ = os.Remove(src)
	return nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, errCrossDevice)
}

func moveError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", issue.ErrPermission, err)
	}
	return fmt.Errorf("%w: moving executable: %w", issue.ErrIO, err)
}
