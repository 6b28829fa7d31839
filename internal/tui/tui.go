// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Theme represents the visual theme for TUI components.
type Theme string

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeBase16 uses the Base16 theme, which reads well on light backgrounds.
	ThemeBase16 Theme = "base16"
)

// Config holds common configuration for TUI components.
type Config struct {
	// Theme specifies the visual theme to use.
	Theme Theme
	// Accessible enables accessible mode for screen readers.
	Accessible bool
	// Input is where answers are read from (default os.Stdin).
	Input io.Reader
	// Output is where prompts are written (default os.Stderr).
	Output io.Writer
}

// DefaultConfig returns the configuration for the current terminal.
// Accessible mode is enabled when requested, when the ACCESSIBLE
// environment variable is set, or when stdin is not a terminal. Prompts go
// to stderr so stdout stays clean for piping.
func DefaultConfig(accessible bool) Config {
	return Config{
		Theme:      ThemeCharm,
		Accessible: accessible || os.Getenv("ACCESSIBLE") != "" || !isInputTerminal(),
		Input:      os.Stdin,
		Output:     os.Stderr,
	}
}

// ThemeForScheme maps a configured color scheme (auto, dark, light) onto a
// huh theme.
func ThemeForScheme(scheme string) Theme {
	switch scheme {
	case "light":
		return ThemeBase16
	case "dark":
		return ThemeDracula
	default:
		return ThemeCharm
	}
}

// isInputTerminal returns true if stdin is connected to a terminal.
// Returns false when running inside command substitution ($()) or pipes.
func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// getHuhTheme converts a Theme to a huh.Theme.
func getHuhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}
