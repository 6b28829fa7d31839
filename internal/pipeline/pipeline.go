// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/duckfetch/duckfetch/internal/extract"
	"github.com/duckfetch/duckfetch/internal/fetch"
	"github.com/duckfetch/duckfetch/internal/install"
	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/platform"
	"github.com/duckfetch/duckfetch/internal/release"
)

type (
	// Downloader fetches a release archive into a new temp scope.
	Downloader interface {
		Download(ctx context.Context, rel *release.Release, p platform.Platform) (*fetch.Archive, *fetch.Scope, error)
	}

	// Extractor unpacks an archive into an existing directory.
	Extractor interface {
		Extract(archivePath, destDir string) (*extract.Bundle, error)
	}

	// Installer moves the executable out of an extracted bundle.
	Installer interface {
		Locate(extractedDir string) (string, error)
		Install(extractedDir, installDir string) (string, error)
	}

	// DirResolver returns the install directory.
	DirResolver func() (string, error)

	// Observer is notified of every state change.
	Observer func(from, to State)

	// Result describes a successful install.
	Result struct {
		Version     string
		Asset       string
		InstallPath string
		Verified    bool
		Duration    time.Duration
	}

	// Orchestrator sequences one install.
	Orchestrator struct {
		source     release.Source
		downloader Downloader
		extractor  Extractor
		installer  Installer
		resolveDir DirResolver
		platform   platform.Platform
		observers  []Observer
		logger     *log.Logger
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)
)

// WithPlatform overrides the target platform.
func WithPlatform(p platform.Platform) Option {
	return func(o *Orchestrator) {
		o.platform = p
	}
}

// WithInstallDir installs into dir instead of <home>/.local/bin.
func WithInstallDir(dir string) Option {
	return func(o *Orchestrator) {
		o.resolveDir = func() (string, error) { return dir, nil }
	}
}

// WithDirResolver sets how the install directory is found.
func WithDirResolver(r DirResolver) Option {
	return func(o *Orchestrator) {
		o.resolveDir = r
	}
}

// WithObserver registers a state change callback.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, fn)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an Orchestrator.
func New(src release.Source, d Downloader, e Extractor, i Installer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:     src,
		downloader: d,
		extractor:  e,
		installer:  i,
		resolveDir: install.DefaultDir,
		platform:   platform.Current(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return o
}

// Run installs the release tagged requested. Failures are returned as
// *StageError; an unpublished tag yields an *UnknownVersionError inside it
// and nothing is downloaded.
func (o *Orchestrator) Run(ctx context.Context, requested string) (*Result, error) {
	start := time.Now()
	r := &run{o: o}

	// 1. validate
	if err := ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	catalog, err := o.source.Fetch(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	rel, err := catalog.Resolve(requested)
	if err != nil {
		return nil, r.fail(&UnknownVersionError{Requested: requested, Valid: catalog.List()})
	}
	r.advance(VersionChecked)

	// 2. download
	if err := ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	archive, scope, err := o.downloader.Download(ctx, rel, o.platform)
	if err != nil {
		return nil, r.fail(err)
	}
	defer func() {
		if err := scope.Close(); err != nil {
			o.logger.Warn("temp dir not removed", "dir", scope.Dir(), "err", err)
		}
	}()
	r.advance(Downloaded)

	// 3. extract
	if err := ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	dest, err := scope.Mkdir("extract")
	if err != nil {
		return nil, r.fail(err)
	}
	bundle, err := o.extractor.Extract(archive.Path, dest)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(Extracted)

	// the install directory is created only for a bundle that has duckdb
	if _, err := o.installer.Locate(bundle.Dir); err != nil {
		return nil, r.fail(err)
	}

	// 4. resolve the install directory
	installDir, err := o.resolveDir()
	if err != nil {
		return nil, r.fail(err)
	}

	// 5. install
	if err := ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return nil, r.fail(mkdirError(installDir, err))
	}
	path, err := o.installer.Install(bundle.Dir, installDir)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(Installed)

	res := &Result{
		Version:     rel.Tag,
		Asset:       archive.Asset.Name,
		InstallPath: path,
		Verified:    archive.Verified,
		Duration:    time.Since(start),
	}
	o.logger.Info("installed duckdb", "version", res.Version, "path", res.InstallPath, "took", res.Duration.Round(time.Millisecond))
	return res, nil
}

// run tracks the state of one Run call.
type run struct {
	o     *Orchestrator
	state State
}

func (r *run) advance(to State) {
	from := r.state
	r.state = to
	r.o.logger.Debug("state change", "from", from, "to", to)
	for _, fn := range r.o.observers {
		fn(from, to)
	}
}

func (r *run) fail(err error) error {
	last := r.state
	r.o.logger.Debug("install failed", "state", last, "kind", issue.KindOf(err), "err", err)
	r.advance(Failed)
	return &StageError{State: last, Err: err}
}

func mkdirError(dir string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: creating %s: %w", issue.ErrPermission, dir, err)
	}
	return fmt.Errorf("%w: creating %s: %w", issue.ErrIO, dir, err)
}
