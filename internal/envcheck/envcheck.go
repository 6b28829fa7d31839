// SPDX-License-Identifier: MPL-2.0

package envcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/duckfetch/duckfetch/internal/install"
	"github.com/duckfetch/duckfetch/internal/platform"
)

// DefaultMinFreeBytes is the free-space threshold below which the disk
// check warns (200 MiB).
const DefaultMinFreeBytes = 200 << 20

const (
	// StatusOK means the check passed.
	StatusOK Status = iota
	// StatusWarn means the install can proceed but something needs attention.
	StatusWarn
	// StatusFail means the install cannot succeed as configured.
	StatusFail
)

// Test seams.
var (
	describeHost = platform.Describe
	diskUsage    = disk.UsageWithContext
	lookPath     = exec.LookPath
	runVersion   = func(ctx context.Context, path string) (string, error) {
		out, err := exec.CommandContext(ctx, path, "--version").Output()
		return strings.TrimSpace(string(out)), err
	}
)

type (
	// Status is the outcome of a single check.
	Status int

	// Check is one line of the report.
	Check struct {
		Name   string
		Status Status
		Detail string
	}

	// Report collects the checks in the order they ran.
	Report struct {
		Checks []Check
	}

	// Checker runs the environment checks.
	Checker struct {
		platform     platform.Platform
		installDir   string
		resolveDir   func() (string, error)
		pathEnv      *string
		minFreeBytes uint64
		logger       *log.Logger
	}

	// Option configures a Checker.
	Option func(*Checker)
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	return r.Worst() == StatusFail
}

// Worst returns the most severe status in the report.
func (r *Report) Worst() Status {
	worst := StatusOK
	for _, c := range r.Checks {
		if c.Status > worst {
			worst = c.Status
		}
	}
	return worst
}

// Find returns the check with the given name.
func (r *Report) Find(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

func (r *Report) add(name string, status Status, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
}

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Platform) Option {
	return func(c *Checker) {
		c.platform = p
	}
}

// WithInstallDir checks dir instead of the default install directory.
func WithInstallDir(dir string) Option {
	return func(c *Checker) {
		c.installDir = dir
	}
}

// WithPathEnv uses value instead of $PATH for the PATH check.
func WithPathEnv(value string) Option {
	return func(c *Checker) {
		c.pathEnv = &value
	}
}

// WithMinFreeBytes sets the disk space warning threshold.
func WithMinFreeBytes(n uint64) Option {
	return func(c *Checker) {
		c.minFreeBytes = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

// New creates a Checker for the current platform and the default install
// directory.
func New(opts ...Option) *Checker {
	c := &Checker{
		platform:     platform.Current(),
		resolveDir:   install.DefaultDir,
		minFreeBytes: DefaultMinFreeBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Run executes every check. The returned error is non-nil only when ctx is
// done; check failures are reported in the Report.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	r := &Report{}

	if err := c.checkPlatform(ctx, r); err != nil {
		return nil, err
	}

	dir, ok := c.checkInstallDir(r)
	if ok {
		c.checkPath(r, dir)
		c.checkDisk(ctx, r, dir)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("environment check cancelled: %w", err)
	}
	c.checkExisting(ctx, r)

	return r, nil
}

func (c *Checker) checkPlatform(ctx context.Context, r *Report) error {
	hi, err := describeHost(ctx)
	if err != nil {
		return err
	}
	hi.Platform = c.platform

	names := c.platform.ArchiveNames()
	if len(names) == 0 {
		r.add("platform", StatusFail, "%s: DuckDB publishes no CLI build for %s", hi, c.platform)
		return nil
	}
	r.add("platform", StatusOK, "%s, archive %s", hi, names[0])
	return nil
}

// checkInstallDir returns the resolved directory and whether later checks
// can use it.
func (c *Checker) checkInstallDir(r *Report) (string, bool) {
	const name = "install dir"

	dir := c.installDir
	if dir == "" {
		d, err := c.resolveDir()
		if err != nil {
			r.add(name, StatusFail, "%v", err)
			return "", false
		}
		dir = d
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.add(name, StatusWarn, "%s does not exist yet and will be created", dir)
		return dir, true
	case err != nil:
		r.add(name, StatusFail, "%s: %v", dir, err)
		return dir, false
	case !info.IsDir():
		r.add(name, StatusFail, "%s is not a directory", dir)
		return dir, false
	}

	probe, err := os.CreateTemp(dir, ".duckfetch-probe-*")
	if err != nil {
		r.add(name, StatusFail, "%s is not writable: %v", dir, err)
		return dir, false
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	r.add(name, StatusOK, "%s is writable", dir)
	return dir, true
}

func (c *Checker) checkPath(r *Report, dir string) {
	pathEnv := os.Getenv("PATH")
	if c.pathEnv != nil {
		pathEnv = *c.pathEnv
	}

	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry != "" && sameDir(filepath.Clean(entry), want) {
			r.add("PATH", StatusOK, "%s is on PATH", dir)
			return
		}
	}
	r.add("PATH", StatusWarn, "%s is not on PATH; add it to run duckdb by name", dir)
}

func (c *Checker) checkDisk(ctx context.Context, r *Report, dir string) {
	target := nearestExisting(dir)
	usage, err := diskUsage(ctx, target)
	if err != nil {
		c.logger.Debug("disk usage unavailable", "path", target, "err", err)
		r.add("disk space", StatusWarn, "could not determine free space on %s", target)
		return
	}
	if usage.Free < c.minFreeBytes {
		r.add("disk space", StatusWarn, "%s free on %s, below %s", formatBytes(usage.Free), target, formatBytes(c.minFreeBytes))
		return
	}
	r.add("disk space", StatusOK, "%s free on %s", formatBytes(usage.Free), target)
}

func (c *Checker) checkExisting(ctx context.Context, r *Report) {
	path, err := lookPath(c.platform.ExecutableName())
	if err != nil {
		r.add("duckdb", StatusOK, "no duckdb on PATH")
		return
	}
	version, err := runVersion(ctx, path)
	if err != nil {
		c.logger.Debug("duckdb --version failed", "path", path, "err", err)
		r.add("duckdb", StatusWarn, "%s does not run: %v", path, err)
		return
	}
	if version == "" {
		version = "unknown version"
	}
	r.add("duckdb", StatusOK, "%s (%s)", path, version)
}

// nearestExisting walks up from dir to the first path that exists.
func nearestExisting(dir string) string {
	for p := filepath.Clean(dir); ; {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}

func sameDir(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
