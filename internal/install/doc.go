// SPDX-License-Identifier: MPL-2.0

// Package install places an extracted duckdb executable into its install
// directory, replacing any previous copy.
package install
