// SPDX-License-Identifier: MPL-2.0

// Package release models the published DuckDB releases.
//
// A Source retrieves releases from the GitHub Releases API and builds a
// Catalog: an immutable, newest-first list of releases keyed by tag. The
// catalog answers the questions the install pipeline asks before any
// download happens: is this tag published, and what assets does it carry.
package release
