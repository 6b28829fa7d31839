// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/duckfetch/duckfetch/internal/cueutil"
	"github.com/duckfetch/duckfetch/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "duckfetch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. DUCKFETCH_API_URL.
	EnvPrefix = "DUCKFETCH"

	// maxConfigFileBytes bounds the config file read.
	maxConfigFileBytes = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the duckfetch configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS, and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", issue.ErrHomeDirUnknown, err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("%w: %w", issue.ErrHomeDirUnknown, err)
			}
			dir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(dir, AppName), nil
}

// FilePath returns the config file location inside dir, or inside ConfigDir
// when dir is empty.
func FilePath(dir string) (string, error) {
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// ExpandHome replaces a leading "~" path element with the home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: expanding %s: %w", issue.ErrHomeDirUnknown, path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// loadWithOptions builds a fresh Viper instance from defaults, the CUE file
// and the environment, and decodes it.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	bindEnv(v)

	path := opts.ConfigFilePath
	explicit := path != ""
	if !explicit {
		p, err := FilePath(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	resolved := ""
	switch {
	case fileExists(path):
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare it with the output of 'duckfetch config show'").
				Wrap(err).
				BuildError()
		}
		resolved = path
	case explicit:
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'duckfetch config init' to create a default file").
			Wrap(fmt.Errorf("config file not found: %s", path)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolved).
			WithSuggestion("Check DUCKFETCH_* environment variables for typos").
			Wrap(err).
			BuildError()
	}

	if cfg.InstallDir != "" {
		dir, err := ExpandHome(cfg.InstallDir)
		if err != nil {
			return nil, "", err
		}
		cfg.InstallDir = dir
	}

	return &cfg, resolved, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("repository.owner", d.Repository.Owner)
	v.SetDefault("repository.name", d.Repository.Name)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("github_token", d.GitHubToken)
	v.SetDefault("install_dir", d.InstallDir)
	v.SetDefault("include_prereleases", d.IncludePrereleases)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("log_level", string(d.LogLevel))
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.accessible", d.UI.Accessible)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
}

// bindEnv maps DUCKFETCH_<KEY> (dots become underscores) onto every key.
// The token additionally honours the conventional GITHUB_TOKEN.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github_token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN") // only errors without a key
}

// loadCUEIntoViper validates the file at path against #Config and merges it
// into v. Decoding to a map keeps Viper's precedence rules: file values
// override defaults, the environment overrides both.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	result, err := cueutil.ParseAndDecode[map[string]any](
		[]byte(configSchema), data, "#Config",
		cueutil.WithConcrete(false),
		cueutil.WithFilename(path),
		cueutil.WithMaxFileSize(maxConfigFileBytes),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefault writes the default config file into dir (ConfigDir when
// empty) unless one exists. It returns the path and whether it was written.
func CreateDefault(dir string) (string, bool, error) {
	path, err := FilePath(dir)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("%w: %w", issue.ErrIO, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("%w: creating config directory: %w", issue.ErrIO, err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("%w: writing config file: %w", issue.ErrIO, err)
	}
	return path, true, nil
}
