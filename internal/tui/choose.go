// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"
)

var (
	// ErrCancelled is returned when the user dismisses a prompt with Esc or
	// Ctrl+C.
	ErrCancelled = errors.New("selection cancelled")

	// ErrNoChoices is returned when there is nothing to choose from.
	ErrNoChoices = errors.New("nothing to choose from")
)

// Option represents a selectable option with a display title and value.
type Option[T comparable] struct {
	// Title is the display text for the option.
	Title string
	// Value is the underlying value of the option.
	Value T
}

// ChooseOptions configures the Choose component.
type ChooseOptions[T comparable] struct {
	// Title is the title/prompt displayed above the options.
	Title string
	// Description provides additional context below the title.
	Description string
	// Options is the list of options to choose from.
	Options []Option[T]
	// Height limits the number of visible options (0 for auto).
	Height int
	// Config holds common TUI configuration.
	Config Config
}

// Choose prompts the user to select one option from a list.
// Returns the selected value, ErrCancelled when the prompt was dismissed, or
// the context error when ctx ends first.
func Choose[T comparable](ctx context.Context, opts ChooseOptions[T]) (T, error) {
	var result T
	if len(opts.Options) == 0 {
		return result, ErrNoChoices
	}

	form := newChooseForm(opts, &result)
	if err := form.RunWithContext(ctx); err != nil {
		return result, mapFormError(ctx, err)
	}
	return result, nil
}

// ChooseVersion asks the user to pick one of tags, newest first. The first
// tag is preselected.
func ChooseVersion(ctx context.Context, tags []string, cfg Config) (string, error) {
	opts := make([]Option[string], len(tags))
	for i, tag := range tags {
		title := tag
		if i == 0 {
			title += " (latest)"
		}
		opts[i] = Option[string]{Title: title, Value: tag}
	}
	return Choose(ctx, ChooseOptions[string]{
		Title:       "Select a DuckDB version",
		Description: "Esc or Ctrl+C cancels",
		Options:     opts,
		Height:      min(len(opts)+2, 12),
		Config:      cfg,
	})
}

func newChooseForm[T comparable](opts ChooseOptions[T], result *T) *huh.Form {
	huhOpts := make([]huh.Option[T], len(opts.Options))
	for i, opt := range opts.Options {
		huhOpts[i] = huh.NewOption(opt.Title, opt.Value)
	}

	sel := huh.NewSelect[T]().
		Title(opts.Title).
		Description(opts.Description).
		Options(huhOpts...).
		Value(result)

	if opts.Height > 0 {
		sel = sel.Height(opts.Height)
	}

	form := huh.NewForm(huh.NewGroup(sel)).
		WithTheme(getHuhTheme(opts.Config.Theme)).
		WithAccessible(opts.Config.Accessible).
		WithKeyMap(cancelKeyMap()).
		WithShowHelp(true)

	if opts.Config.Input != nil {
		form = form.WithInput(opts.Config.Input)
	}
	if opts.Config.Output != nil {
		form = form.WithOutput(opts.Config.Output)
	}
	return form
}

// cancelKeyMap is huh's default key map with Esc added to the quit binding.
func cancelKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	)
	return km
}

func mapFormError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, huh.ErrUserAborted):
		return ErrCancelled
	case ctx.Err() != nil:
		return fmt.Errorf("prompt interrupted: %w", ctx.Err())
	default:
		return fmt.Errorf("prompt failed: %w", err)
	}
}
