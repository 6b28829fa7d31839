// SPDX-License-Identifier: MPL-2.0

// Package platform identifies the host operating system and architecture and
// maps them onto the archive names DuckDB publishes for its command-line
// binary.
package platform
