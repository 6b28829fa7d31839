// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs one DuckDB install: validate the requested tag
// against the release catalog, download the platform archive, extract it
// and move the executable into the install directory.
//
// The install directory is not touched until every earlier step has
// succeeded, and all temporary files are removed before Run returns.
package pipeline
