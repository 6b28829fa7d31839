// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive prompts used by the CLI, built on
// charmbracelet/huh. Prompts fall back to huh's accessible mode when stdin
// is not a terminal.
package tui
