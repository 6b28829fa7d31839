// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/duckfetch/duckfetch/internal/issue"
)

// defaultMaxEntryBytes caps one decompressed entry (1 GiB).
const defaultMaxEntryBytes = 1 << 30

type (
	// Bundle is the result of one extraction.
	Bundle struct {
		Dir   string
		Files []string // slash-separated paths relative to Dir, archive order
		Size  int64
	}

	// Extractor unpacks zip archives.
	Extractor struct {
		maxEntryBytes int64
		logger        *log.Logger
	}

	// Option configures an Extractor.
	Option func(*Extractor)
)

// WithMaxEntryBytes caps the decompressed size of any single entry.
func WithMaxEntryBytes(n int64) Option {
	return func(e *Extractor) {
		e.maxEntryBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{maxEntryBytes: defaultMaxEntryBytes}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Extract unpacks the zip at archivePath into destDir, which must be an
// existing directory. File modes stored in the archive are kept. Symlink
// entries are skipped.
func (e *Extractor) Extract(archivePath, destDir string) (*Bundle, error) {
	info, err := os.Stat(destDir)
	if err != nil {
		return nil, fmt.Errorf("%w: extraction target: %w", issue.ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: extraction target %s is not a directory", issue.ErrIO, destDir)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: opening archive: %w", issue.ErrIO, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", issue.ErrCorruptArchive, filepath.Base(archivePath), err)
	}
	defer func() { _ = r.Close() }() // read-only

	bundle := &Bundle{Dir: destDir}
	for _, f := range r.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return nil, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, writeError(f.Name, err)
			}
			continue
		case mode&fs.ModeSymlink != 0:
			e.logger.Debug("skipping symlink entry", "name", f.Name)
			continue
		case !mode.IsRegular():
			e.logger.Debug("skipping special entry", "name", f.Name, "mode", mode)
			continue
		}

		if f.UncompressedSize64 > uint64(e.maxEntryBytes) {
			return nil, fmt.Errorf("%w: entry %s is %d bytes, limit %d", issue.ErrCorruptArchive, f.Name, f.UncompressedSize64, e.maxEntryBytes)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, writeError(f.Name, err)
		}

		n, err := e.extractFile(f, target, mode.Perm())
		if err != nil {
			return nil, err
		}
		bundle.Files = append(bundle.Files, strings.TrimPrefix(filepath.ToSlash(filepath.Clean(f.Name)), "./"))
		bundle.Size += n
	}

	e.logger.Debug("archive extracted", "archive", filepath.Base(archivePath), "files", len(bundle.Files), "bytes", bundle.Size)
	return bundle, nil
}

func (e *Extractor) extractFile(f *zip.File, target string, perm fs.FileMode) (n int64, err error) {
	if perm == 0 {
		perm = 0o644
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: entry %s: %w", issue.ErrCorruptArchive, f.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, writeError(f.Name, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = writeError(f.Name, closeErr)
		}
	}()

	buf := make([]byte, 32*1024)
	limit := e.maxEntryBytes
	for {
		nr, readErr := rc.Read(buf)
		if nr > 0 {
			n += int64(nr)
			if n > limit {
				return n, fmt.Errorf("%w: entry %s exceeds %d bytes", issue.ErrCorruptArchive, f.Name, limit)
			}
			if _, werr := out.Write(buf[:nr]); werr != nil {
				return n, writeError(f.Name, werr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return n, fmt.Errorf("%w: entry %s: %w", issue.ErrCorruptArchive, f.Name, readErr)
		}
	}

	// OpenFile applies the umask; restore the archived bits.
	if err := out.Chmod(perm); err != nil {
		return n, writeError(f.Name, err)
	}
	return n, nil
}

// safeJoin resolves an entry name under dest, rejecting absolute paths and
// names that climb out of dest.
func safeJoin(dest, name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: entry %q escapes the extraction directory", issue.ErrCorruptArchive, name)
	}
	target := filepath.Join(dest, local)
	if target == filepath.Clean(dest) {
		return target, nil
	}
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: entry %q escapes the extraction directory", issue.ErrCorruptArchive, name)
	}
	return target, nil
}

func writeError(name string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: writing %s: %w", issue.ErrPermission, name, err)
	}
	return fmt.Errorf("%w: writing %s: %w", issue.ErrIO, name, err)
}
