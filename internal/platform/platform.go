// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"fmt"
	"runtime"
)

const (
	// archivePrefix and archiveExt bracket the platform label in DuckDB CLI
	// asset names, e.g. "duckdb_cli-linux-amd64.zip".
	archivePrefix = "duckdb_cli-"
	archiveExt    = ".zip"

	// BinaryName is the executable name inside the archive, without extension.
	BinaryName = "duckdb"
)

// Platform is an OS/architecture pair in Go's GOOS/GOARCH vocabulary.
type Platform struct {
	OS   string
	Arch string
}

// labels lists the DuckDB asset labels for each platform, preferred first.
// Older releases published "aarch64" for Linux ARM and only a universal
// binary for macOS.
var labels = map[Platform][]string{
	{OS: "linux", Arch: "amd64"}:   {"linux-amd64"},
	{OS: "linux", Arch: "arm64"}:   {"linux-arm64", "linux-aarch64"},
	{OS: "darwin", Arch: "amd64"}:  {"osx-amd64", "osx-universal"},
	{OS: "darwin", Arch: "arm64"}:  {"osx-arm64", "osx-universal"},
	{OS: "windows", Arch: "amd64"}: {"windows-amd64"},
	{OS: "windows", Arch: "arm64"}: {"windows-arm64"},
}

// Current returns the platform the process is running on.
func Current() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// String returns "os/arch".
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// Supported reports whether DuckDB publishes a CLI archive for p.
func (p Platform) Supported() bool {
	_, ok := labels[p]
	return ok
}

// ArchiveNames returns the candidate asset names for p in preference order.
// It returns nil for unsupported platforms.
func (p Platform) ArchiveNames() []string {
	ls := labels[p]
	if len(ls) == 0 {
		return nil
	}
	names := make([]string, 0, len(ls))
	for _, l := range ls {
		names = append(names, archivePrefix+l+archiveExt)
	}
	return names
}

// ExecutableName returns the binary file name on p ("duckdb" or "duckdb.exe").
func (p Platform) ExecutableName() string {
	if p.OS == "windows" {
		return BinaryName + ".exe"
	}
	return BinaryName
}
