// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride redirects ConfigDir in tests; os.UserHomeDir does not
// honour HOME on every platform.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
