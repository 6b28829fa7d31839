// SPDX-License-Identifier: MPL-2.0

// Package extract unpacks zip archives into a directory, refusing entries
// that would land outside it.
package extract
