// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"

	"github.com/duckfetch/duckfetch/internal/config"
	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/platform"
	"github.com/duckfetch/duckfetch/internal/testutil"
	"github.com/duckfetch/duckfetch/internal/tui"
)

type testCLI struct {
	app    *App
	stub   *githubStub
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	cfgDir string
}

// newTestCLI points the CLI at a fresh GitHub stub and an empty config
// directory. It mutates process environment, so callers must not be parallel.
func newTestCLI(t *testing.T, picker VersionPicker) *testCLI {
	t.Helper()

	stub := newGitHubStub(t)
	t.Setenv("DUCKFETCH_API_URL", stub.URL)
	t.Setenv("DUCKFETCH_INCLUDE_PRERELEASES", "")
	t.Setenv("DUCKFETCH_INSTALL_DIR", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("DUCKFETCH_GITHUB_TOKEN", "")

	cfgDir := t.TempDir()
	config.SetConfigDirOverride(cfgDir)
	t.Cleanup(config.Reset)

	c := &testCLI{stub: stub, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, cfgDir: cfgDir}
	c.app = NewApp(Dependencies{
		Picker: picker,
		Stdin:  strings.NewReader(""),
		Stdout: c.stdout,
		Stderr: c.stderr,
	})
	return c
}

func (c *testCLI) run(args ...string) error {
	root := NewRootCommand(c.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func installedBinary(dir string) string {
	return filepath.Join(dir, platform.Current().ExecutableName())
}

func TestList(t *testing.T) {
	c := newTestCLI(t, nil)

	if err := c.run("list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := c.stdout.String()
	first, second := strings.Index(out, "v1.1.0"), strings.Index(out, "v1.0.0")
	if first < 0 || second < 0 || first > second {
		t.Errorf("list output not newest first:\n%s", out)
	}
	if !strings.Contains(out, "(latest)") || !strings.Contains(out, "2024-09-09") {
		t.Errorf("list output missing latest marker or date:\n%s", out)
	}
	if strings.Contains(out, "rc1") || strings.Contains(out, "draft") {
		t.Errorf("list output shows unpublished releases:\n%s", out)
	}
}

func TestList_LimitAndPrereleases(t *testing.T) {
	c := newTestCLI(t, nil)
	t.Setenv("DUCKFETCH_INCLUDE_PRERELEASES", "true")

	if err := c.run("list", "--limit", "2"); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(c.stdout.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), c.stdout)
	}
	if !strings.Contains(lines[0], "v1.2.0-rc1") || !strings.Contains(lines[0], "(prerelease)") {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestInstall_ExplicitVersion(t *testing.T) {
	c := newTestCLI(t, nil)
	dir := filepath.Join(t.TempDir(), "bin")

	if err := c.run("install", "v1.0.0", "--install-dir", dir); err != nil {
		t.Fatalf("install: %v\n%s", err, c.stderr)
	}

	data, err := os.ReadFile(installedBinary(dir))
	if err != nil {
		t.Fatalf("binary not installed: %v", err)
	}
	if !strings.Contains(string(data), "v1.0.0") {
		t.Errorf("installed the wrong archive: %q", data)
	}
	out := c.stdout.String()
	for _, want := range []string{"Installing duckdb v1.0.0", "version found", "archive extracted", "Installed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := c.stub.downloads.Load(); got != 1 {
		t.Errorf("downloads = %d, want 1", got)
	}

	// a second run replaces the binary
	if err := c.run("install", "v1.1.0", "--install-dir", dir); err != nil {
		t.Fatalf("second install: %v", err)
	}
	data, _ = os.ReadFile(installedBinary(dir))
	if !strings.Contains(string(data), "v1.1.0") {
		t.Errorf("binary not replaced: %q", data)
	}
}

func TestInstall_Picker(t *testing.T) {
	var offered []string
	var promptCfg tui.Config
	picker := func(_ context.Context, tags []string, cfg tui.Config) (string, error) {
		offered = tags
		promptCfg = cfg
		return tags[len(tags)-1], nil
	}
	c := newTestCLI(t, picker)
	dir := t.TempDir()

	if err := c.run("install", "--install-dir", dir); err != nil {
		t.Fatalf("install: %v\n%s", err, c.stderr)
	}

	if !slices.Equal(offered, []string{"v1.1.0", "v1.0.0"}) {
		t.Errorf("picker offered %v", offered)
	}
	if promptCfg.Output != c.stderr {
		t.Error("prompt should render on stderr")
	}
	if got := c.stub.listCalls.Load(); got != 1 {
		t.Errorf("release list fetched %d times, want 1", got)
	}
	data, err := os.ReadFile(installedBinary(dir))
	if err != nil || !strings.Contains(string(data), "v1.0.0") {
		t.Errorf("installed %q, %v", data, err)
	}
}

func TestInstall_PickerCancelled(t *testing.T) {
	picker := func(context.Context, []string, tui.Config) (string, error) {
		return "", tui.ErrCancelled
	}
	c := newTestCLI(t, picker)
	dir := filepath.Join(t.TempDir(), "bin")

	err := c.run("install", "--install-dir", dir)
	if code := exitCodeFor(err); code != ExitInterrupted {
		t.Errorf("exit code = %d (%v), want %d", code, err, ExitInterrupted)
	}
	if got := c.stub.downloads.Load(); got != 0 {
		t.Errorf("downloads = %d after cancel", got)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("install dir created after cancel: %v", err)
	}

	var buf bytes.Buffer
	c.app.handleError(&buf, fang.Styles{}, err)
	if !strings.Contains(buf.String(), "Cancelled") {
		t.Errorf("handleError output = %q", buf.String())
	}
}

func TestInstall_PickerFailure(t *testing.T) {
	errNoTTY := errors.New("open /dev/tty: no such device")
	picker := func(context.Context, []string, tui.Config) (string, error) {
		return "", errNoTTY
	}
	c := newTestCLI(t, picker)

	err := c.run("install", "--install-dir", filepath.Join(t.TempDir(), "bin"))
	if !errors.Is(err, errNoTTY) {
		t.Fatalf("install error = %v, want the picker error", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "choose a version" {
		t.Errorf("install error = %#v, want an ActionableError for choosing a version", err)
	}
	if got := c.stub.downloads.Load(); got != 0 {
		t.Errorf("downloads = %d after picker failure", got)
	}
}

func TestInstall_UnknownVersion(t *testing.T) {
	c := newTestCLI(t, nil)
	dir := filepath.Join(t.TempDir(), "bin")

	err := c.run("install", "v9.9.9", "--install-dir", dir)
	if !errors.Is(err, issue.ErrUnknownVersion) {
		t.Fatalf("install error = %v, want ErrUnknownVersion", err)
	}
	if code := exitCodeFor(err); code != ExitUser {
		t.Errorf("exit code = %d, want %d", code, ExitUser)
	}

	msg := formatErrorForDisplay(err, false)
	for _, want := range []string{`unknown version "v9.9.9"`, "v1.1.0, v1.0.0", "•"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if got := c.stub.downloads.Load(); got != 0 {
		t.Errorf("downloads = %d for an unknown version", got)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("install dir touched: %v", err)
	}
}

func TestInstall_DownloadFailure(t *testing.T) {
	c := newTestCLI(t, nil)
	c.stub.removeArchive("v1.1.0")
	dir := t.TempDir()

	err := c.run("install", "v1.1.0", "--install-dir", dir)
	if !errors.Is(err, issue.ErrNetwork) {
		t.Fatalf("install error = %v, want ErrNetwork", err)
	}
	if code := exitCodeFor(err); code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("install dir has %d entries after a failed download", len(entries))
	}
}

func TestInstall_DefaultDir(t *testing.T) {
	c := newTestCLI(t, nil)
	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))

	if err := c.run("install", "v1.1.0"); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := os.Stat(installedBinary(filepath.Join(home, ".local", "bin"))); err != nil {
		t.Errorf("binary not in ~/.local/bin: %v", err)
	}
}

func TestInstall_ConfiguredDir(t *testing.T) {
	c := newTestCLI(t, nil)
	dir := filepath.Join(t.TempDir(), "configured")
	testutil.MustWriteFile(t, c.cfgDir, "config.cue", fmt.Appendf(nil, "install_dir: %q\n", filepath.ToSlash(dir)), 0o644)

	if err := c.run("install", "v1.1.0"); err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := os.Stat(installedBinary(dir)); err != nil {
		t.Errorf("binary not in configured dir: %v", err)
	}
}

func TestCheck(t *testing.T) {
	c := newTestCLI(t, nil)
	dir := t.TempDir()

	if err := c.run("check", "--install-dir", dir); err != nil {
		t.Fatalf("check: %v\n%s", err, c.stdout)
	}
	out := c.stdout.String()
	for _, want := range []string{"platform", "install dir", "PATH", "disk space", "duckdb"} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestCheck_FailingDir(t *testing.T) {
	c := newTestCLI(t, nil)
	file := testutil.MustWriteFile(t, t.TempDir(), "not-a-dir", nil, 0o644)

	err := c.run("check", "--install-dir", file)
	if !errors.Is(err, errCheckFailed) || exitCodeFor(err) != ExitUser {
		t.Errorf("check error = %v (exit %d), want failed check", err, exitCodeFor(err))
	}
	if !strings.Contains(c.stdout.String(), "FAIL") {
		t.Errorf("output has no FAIL line:\n%s", c.stdout)
	}
}

func TestConfigCommands(t *testing.T) {
	c := newTestCLI(t, nil)

	if err := c.run("config", "path"); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(c.cfgDir, "config.cue")
	if got := strings.TrimSpace(c.stdout.String()); got != want {
		t.Errorf("config path = %q, want %q", got, want)
	}

	c.stdout.Reset()
	if err := c.run("config", "init"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.stdout.String(), "Created") {
		t.Errorf("config init output = %q", c.stdout)
	}
	c.stdout.Reset()
	if err := c.run("config", "init"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.stdout.String(), "already exists") {
		t.Errorf("second config init output = %q", c.stdout)
	}

	c.stdout.Reset()
	t.Setenv("GITHUB_TOKEN", "ghp_secret")
	if err := c.run("config", "show", "--format", "toml"); err != nil {
		t.Fatal(err)
	}
	out := c.stdout.String()
	if !strings.Contains(out, c.stub.URL) || !strings.Contains(out, "<set>") || strings.Contains(out, "ghp_secret") {
		t.Errorf("config show --format toml:\n%s", out)
	}
	if !strings.Contains(c.stderr.String(), want) {
		t.Errorf("config show should name the file on stderr: %q", c.stderr)
	}

	c.stdout.Reset()
	if err := c.run("config", "show"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.stdout.String(), "repository: {") {
		t.Errorf("config show (cue):\n%s", c.stdout)
	}

	err := c.run("config", "show", "--format", "yaml")
	if err == nil || exitCodeFor(err) != ExitUser || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("yaml format error = %v", err)
	}
}

func TestInvalidConfigFile(t *testing.T) {
	c := newTestCLI(t, nil)
	testutil.MustWriteFile(t, c.cfgDir, "config.cue", []byte(`ui: color_scheme: "neon"`+"\n"), 0o644)

	err := c.run("list")
	if exitCodeFor(err) != ExitUser {
		t.Fatalf("exit code = %d (%v), want %d", exitCodeFor(err), err, ExitUser)
	}
	if msg := formatErrorForDisplay(err, false); !strings.Contains(msg, "color_scheme") || !strings.Contains(msg, "•") {
		t.Errorf("message = %q", msg)
	}
	if got := c.stub.listCalls.Load(); got != 0 {
		t.Errorf("API called %d times with a broken config", got)
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"explicit", &ExitError{Code: 7}, 7},
		{"cancelled prompt", tui.ErrCancelled, ExitInterrupted},
		{"interrupt", fmt.Errorf("run: %w", context.Canceled), ExitInterrupted},
		{"unknown version", fmt.Errorf("x: %w", issue.ErrUnknownVersion), ExitUser},
		{"asset", issue.ErrAssetNotFound, ExitUser},
		{"home", issue.ErrHomeDirUnknown, ExitUser},
		{"permission", issue.ErrPermission, ExitUser},
		{"usage", errors.New(`unknown flag: --bogus`), ExitUser},
		{"network", issue.ErrNetwork, ExitFailure},
		{"parse", issue.ErrParse, ExitFailure},
		{"corrupt", issue.ErrCorruptArchive, ExitFailure},
		{"io", issue.ErrIO, ExitFailure},
		{"source missing", issue.ErrSourceMissing, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHandleError_VerboseGuide(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	err := issue.WrapWithOperation(fmt.Errorf("%w: connection refused", issue.ErrNetwork), "list releases")

	var quiet bytes.Buffer
	app.handleError(&quiet, fang.Styles{}, err)
	if !strings.Contains(quiet.String(), "failed to list releases") || strings.Contains(quiet.String(), "Could not reach GitHub") {
		t.Errorf("quiet output = %q", quiet.String())
	}

	app.verbose = true
	var loud bytes.Buffer
	app.handleError(&loud, fang.Styles{}, err)
	for _, want := range []string{"Error chain:", "Could not reach GitHub"} {
		if !strings.Contains(loud.String(), want) {
			t.Errorf("verbose output missing %q:\n%s", want, loud.String())
		}
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level   config.LogLevel
		verbose bool
		want    log.Level
	}{
		{config.LogLevelWarn, false, log.WarnLevel},
		{config.LogLevelError, false, log.ErrorLevel},
		{config.LogLevelInfo, true, log.DebugLevel},
		{"bogus", false, log.WarnLevel},
	}
	for _, tt := range tests {
		l := newLogger(&bytes.Buffer{}, tt.level, tt.verbose)
		if l.GetLevel() != tt.want {
			t.Errorf("newLogger(%q, %v) level = %v, want %v", tt.level, tt.verbose, l.GetLevel(), tt.want)
		}
		if l.GetPrefix() != "duckfetch" {
			t.Errorf("prefix = %q", l.GetPrefix())
		}
	}
}

func TestGlamourStyle(t *testing.T) {
	t.Parallel()

	if got := glamourStyle(&bytes.Buffer{}, "dark"); got != "notty" {
		t.Errorf("glamourStyle(buffer) = %q, want notty", got)
	}
}
