// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
package cueutil

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is returned when the input exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// Result is a decoded document together with the unified CUE value.
type Result[T any] struct {
	Value   T
	Unified cue.Value
}

// ParseAndDecode compiles schema, unifies data with the definition (for
// example "#Config") and decodes the result into T. Errors name the file set
// with WithFilename and the offending field paths.
func ParseAndDecode[T any](schema, data []byte, definition string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	name := o.filename
	if name == "" {
		name = "<input>"
	}

	if o.maxFileSize > 0 && int64(len(data)) > o.maxFileSize {
		return nil, fmt.Errorf("%s: %w: %d bytes exceeds maximum %d bytes", name, ErrFileTooLarge, len(data), o.maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return nil, fmt.Errorf("internal error: schema has no %s definition", definition)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(name))
	if err := userValue.Err(); err != nil {
		return nil, FormatError(err, name, definition)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, name, definition)
	}

	var value T
	if err := unified.Decode(&value); err != nil {
		return nil, FormatError(err, name, definition)
	}
	return &Result[T]{Value: value, Unified: unified}, nil
}

// ParseAndDecodeString is ParseAndDecode for string inputs.
func ParseAndDecodeString[T any](schema, data, definition string, opts ...Option) (*Result[T], error) {
	return ParseAndDecode[T]([]byte(schema), []byte(data), definition, opts...)
}

// FormatError renders CUE errors as "<file>: <path>: <message>" lines, e.g.
// "config.cue: ui.color_scheme: 2 errors in empty disjunction". The
// definition prefix is dropped from paths.
func FormatError(err error, file, definition string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		path := strings.Join(cueerrors.Path(e), ".")
		path = strings.TrimPrefix(strings.TrimPrefix(path, definition), ".")
		msg := strings.ReplaceAll(e.Error(), definition+".", "")
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
			lines = append(lines, path+": "+msg)
			continue
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", file, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", file, strings.Join(lines, "\n  "))
}
