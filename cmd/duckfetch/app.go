// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/duckfetch/duckfetch/internal/config"
	"github.com/duckfetch/duckfetch/internal/fetch"
	"github.com/duckfetch/duckfetch/internal/release"
	"github.com/duckfetch/duckfetch/internal/tui"
)

type (
	// VersionPicker asks the user to choose one of tags.
	VersionPicker func(ctx context.Context, tags []string, cfg tui.Config) (string, error)

	// App wires CLI services and shared dependencies. All Cobra command
	// handlers receive an App reference.
	App struct {
		Config     config.Provider
		Picker     VersionPicker
		HTTPClient *http.Client
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer

		// set by persistent flags
		verbose bool
		cfgFile string

		// colorScheme is remembered for error rendering after the command ran.
		colorScheme string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		Picker     VersionPicker
		HTTPClient *http.Client
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// session is the per-invocation state derived from flags and config.
	session struct {
		cfg     *config.Loaded
		logger  *log.Logger
		verbose bool
		client  *http.Client
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Picker == nil {
		deps.Picker = tui.ChooseVersion
	}

	return &App{
		Config:     deps.Config,
		Picker:     deps.Picker,
		HTTPClient: deps.HTTPClient,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// session loads configuration and builds the logger and HTTP client for one
// command.
func (a *App) session(cmd *cobra.Command) (*session, error) {
	loaded, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.cfgFile})
	if err != nil {
		return nil, &ExitError{Code: ExitUser, Err: err}
	}

	verbose := a.verbose || loaded.UI.Verbose
	a.verbose = verbose
	a.colorScheme = string(loaded.UI.ColorScheme)
	s := &session{
		cfg:     loaded,
		logger:  newLogger(a.stderr, loaded.LogLevel, verbose),
		verbose: verbose,
		client:  a.HTTPClient,
	}
	if s.client == nil {
		s.client = newHTTPClient(loaded.HTTPTimeout)
	}
	if loaded.Path != "" {
		s.logger.Debug("configuration loaded", "path", loaded.Path)
	}
	return s, nil
}

// newLogger returns the stderr logger. --verbose or ui.verbose lowers the
// level to debug; otherwise log_level applies.
func newLogger(w io.Writer, level config.LogLevel, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		lvl = log.WarnLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "duckfetch",
		Level:           lvl,
		ReportTimestamp: verbose,
		TimeFormat:      time.Kitchen,
	})
}

// newHTTPClient bounds connection setup and the wait for response headers
// by timeout. Body transfer is bounded only by the context so large
// archives can stream on slow links.
func newHTTPClient(timeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = timeout
	tr.TLSHandshakeTimeout = min(timeout, 10*time.Second)
	return &http.Client{Transport: tr}
}

func userAgent() string {
	return "duckfetch/" + Version
}

// newSource builds the GitHub release source from configuration.
func (s *session) newSource() (*release.GitHubSource, error) {
	src, err := release.NewGitHubSource(
		release.WithHTTPClient(s.client),
		release.WithBaseURL(s.cfg.APIURL),
		release.WithToken(s.cfg.GitHubToken),
		release.WithUserAgent(userAgent()),
		release.WithRepo(s.cfg.Repository.Owner, s.cfg.Repository.Name),
		release.WithPrereleases(s.cfg.IncludePrereleases),
		release.WithLogger(s.logger),
	)
	if err != nil {
		return nil, &ExitError{Code: ExitUser, Err: err}
	}
	return src, nil
}

func (s *session) newFetcher() *fetch.Fetcher {
	return fetch.New(
		fetch.WithHTTPClient(s.client),
		fetch.WithToken(s.cfg.GitHubToken, s.cfg.APIURL),
		fetch.WithUserAgent(userAgent()),
		fetch.WithLogger(s.logger),
	)
}

// installDir returns the flag value, then the configured install_dir, or ""
// for the default location.
func (s *session) installDir(flagValue string) (string, error) {
	if flagValue != "" {
		return config.ExpandHome(flagValue)
	}
	return s.cfg.InstallDir, nil
}

func (a *App) tuiConfig(s *session) tui.Config {
	cfg := tui.DefaultConfig(s.cfg.UI.Accessible)
	cfg.Theme = tui.ThemeForScheme(string(s.cfg.UI.ColorScheme))
	cfg.Input = a.stdin
	cfg.Output = a.stderr
	return cfg
}
