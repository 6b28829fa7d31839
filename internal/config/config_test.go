// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/duckfetch/duckfetch/internal/issue"
	"github.com/duckfetch/duckfetch/internal/testutil"
)

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"GITHUB_TOKEN", "DUCKFETCH_GITHUB_TOKEN", "DUCKFETCH_API_URL",
		"DUCKFETCH_INSTALL_DIR", "DUCKFETCH_LOG_LEVEL", "DUCKFETCH_HTTP_TIMEOUT",
		"DUCKFETCH_INCLUDE_PRERELEASES", "DUCKFETCH_REPOSITORY_OWNER", "DUCKFETCH_REPOSITORY_NAME",
		"DUCKFETCH_UI_VERBOSE", "DUCKFETCH_UI_ACCESSIBLE", "DUCKFETCH_UI_COLOR_SCHEME",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T, opts LoadOptions) (*Loaded, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Path != "" {
		t.Errorf("Path = %q, want empty without a file", got.Path)
	}

	want := DefaultConfig()
	if got.Repository != want.Repository || got.APIURL != want.APIURL ||
		got.HTTPTimeout != want.HTTPTimeout || got.LogLevel != want.LogLevel ||
		got.UI != want.UI || got.InstallDir != "" || got.GitHubToken != "" {
		t.Errorf("Load() = %+v, want defaults %+v", got.Config, want)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := writeConfig(t, dir, `
repository: owner: "my-fork"
api_url: "https://ghe.example.com/api/v3"
include_prereleases: true
http_timeout: "1m30s"
log_level: "debug"
install_dir: "/opt/duckdb/bin"
ui: {
	color_scheme: "light"
	accessible: true
}
`)

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Path != path {
		t.Errorf("Path = %q, want %q", got.Path, path)
	}
	if got.Repository.Owner != "my-fork" || got.Repository.Name != "duckdb" {
		t.Errorf("Repository = %+v", got.Repository)
	}
	if got.APIURL != "https://ghe.example.com/api/v3" || !got.IncludePrereleases {
		t.Errorf("Config = %+v", got.Config)
	}
	if got.HTTPTimeout != 90*time.Second {
		t.Errorf("HTTPTimeout = %s", got.HTTPTimeout)
	}
	if got.LogLevel != LogLevelDebug || got.UI.ColorScheme != ColorSchemeLight || !got.UI.Accessible {
		t.Errorf("Config = %+v", got.Config)
	}
	if got.InstallDir != "/opt/duckdb/bin" {
		t.Errorf("InstallDir = %q", got.InstallDir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	writeConfig(t, dir, `
api_url: "https://file.example.com"
ui: color_scheme: "light"
`)
	t.Setenv("DUCKFETCH_API_URL", "http://127.0.0.1:9999")
	t.Setenv("DUCKFETCH_UI_COLOR_SCHEME", "dark")
	t.Setenv("DUCKFETCH_HTTP_TIMEOUT", "5s")
	t.Setenv("DUCKFETCH_UI_VERBOSE", "true")
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.APIURL != "http://127.0.0.1:9999" {
		t.Errorf("APIURL = %q", got.APIURL)
	}
	if got.UI.ColorScheme != ColorSchemeDark || !got.UI.Verbose {
		t.Errorf("UI = %+v", got.UI)
	}
	if got.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %s", got.HTTPTimeout)
	}
	if got.GitHubToken != "ghp_fallback" {
		t.Errorf("GitHubToken = %q", got.GitHubToken)
	}

	t.Setenv("DUCKFETCH_GITHUB_TOKEN", "ghp_preferred")
	got, err = load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.GitHubToken != "ghp_preferred" {
		t.Errorf("GitHubToken = %q, want the DUCKFETCH_ variable to win", got.GitHubToken)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{name: "bad enum", content: `ui: color_scheme: "neon"`, wantSub: "color_scheme"},
		{name: "unknown field", content: `mirror: "https://example.com"`, wantSub: "mirror"},
		{name: "token in file", content: `github_token: "ghp_x"`, wantSub: "github_token"},
		{name: "bad duration", content: `http_timeout: "soon"`, wantSub: "http_timeout"},
		{name: "syntax", content: `api_url: "https://`, wantSub: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := load(t, LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Operation != "load configuration" {
				t.Errorf("expected *issue.ActionableError for load configuration, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUCKFETCH_LOG_LEVEL", "chatty")

	_, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load error = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load error = %v, want *issue.ActionableError", err)
	}
}

func TestLoad_ExpandsHomeInInstallDir(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))

	dir := t.TempDir()
	writeConfig(t, dir, `install_dir: "~/bin"`)

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, "bin"); got.InstallDir != want {
		t.Errorf("InstallDir = %q, want %q", got.InstallDir, want)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load error = %v, want context.Canceled", err)
	}
}

func TestCreateDefault_RoundTrip(t *testing.T) {
	clearEnv(t)

	dir := filepath.Join(t.TempDir(), "duckfetch")
	path, created, err := CreateDefault(dir)
	if err != nil {
		t.Fatalf("CreateDefault: %v", err)
	}
	if !created || path != filepath.Join(dir, "config.cue") {
		t.Errorf("CreateDefault() = %q, %v", path, created)
	}

	if _, created, err := CreateDefault(dir); err != nil || created {
		t.Errorf("second CreateDefault() created=%v err=%v, want existing file kept", created, err)
	}

	got, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("default file does not load: %v", err)
	}
	want := DefaultConfig()
	if got.Path != path || got.HTTPTimeout != want.HTTPTimeout || got.UI != want.UI || got.Repository != want.Repository {
		t.Errorf("reloaded = %+v, want %+v", got.Config, want)
	}
}

func TestRenderTOML(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.GitHubToken = "ghp_secret"

	out, err := RenderTOML(cfg)
	if err != nil {
		t.Fatalf("RenderTOML: %v", err)
	}
	for _, want := range []string{"api_url", "https://api.github.com", "http_timeout", "1m0s", "[repository]", "[ui]", "<set>"} {
		if !strings.Contains(out, want) {
			t.Errorf("TOML output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ghp_secret") {
		t.Error("TOML output leaks the token")
	}
}

func TestGenerateCUE_OmitsToken(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.GitHubToken = "ghp_secret"
	if strings.Contains(GenerateCUE(cfg), "ghp_secret") {
		t.Error("CUE output leaks the token")
	}
}

func TestConfigDir(t *testing.T) {
	t.Cleanup(Reset)

	override := t.TempDir()
	SetConfigDirOverride(override)
	if got, err := ConfigDir(); err != nil || got != override {
		t.Errorf("ConfigDir() with override = %q, %v", got, err)
	}
	Reset()

	if runtime.GOOS == "linux" {
		xdg := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", xdg)
		got, err := ConfigDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(xdg, "duckfetch"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))

	tests := map[string]string{
		"~":          home,
		"~/bin":      filepath.Join(home, "bin"),
		"/abs/bin":   "/abs/bin",
		"rel/~/path": "rel/~/path",
	}
	for in, want := range tests {
		got, err := ExpandHome(in)
		if err != nil || got != want {
			t.Errorf("ExpandHome(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
}
