// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads a release's platform archive into a temporary
// Scope. The Scope owns every temporary path created for one install and
// removes them all when closed.
package fetch
