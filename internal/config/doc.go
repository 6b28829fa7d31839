// SPDX-License-Identifier: MPL-2.0

// Package config handles duckfetch configuration using Viper with CUE as the
// file format.
//
// The file lives at ~/.config/duckfetch/config.cue ($XDG_CONFIG_HOME on
// Linux, ~/Library/Application Support/duckfetch on macOS,
// %APPDATA%\duckfetch on Windows) and is validated against the embedded
// config_schema.cue. Environment variables prefixed with DUCKFETCH_ override
// file values; GITHUB_TOKEN is honoured for API authentication.
package config
