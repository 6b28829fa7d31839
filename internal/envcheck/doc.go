// SPDX-License-Identifier: MPL-2.0

// Package envcheck inspects the local machine before an install: platform
// support, the install directory and PATH, free disk space and any duckdb
// binary already on PATH.
package envcheck
