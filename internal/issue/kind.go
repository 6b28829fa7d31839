// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"os"
)

const (
	// KindUnknown is an error that carries none of the taxonomy sentinels.
	KindUnknown Kind = iota
	// KindNetwork is a transport failure or unexpected HTTP status.
	KindNetwork
	// KindParse is malformed remote release metadata.
	KindParse
	// KindUnknownVersion is a requested tag absent from the catalog.
	KindUnknownVersion
	// KindAssetNotFound means the release has no archive for this platform.
	KindAssetNotFound
	// KindCorruptArchive is a malformed or mismatching archive.
	KindCorruptArchive
	// KindIO is a local disk failure.
	KindIO
	// KindSourceMissing means the executable is absent from the extracted bundle.
	KindSourceMissing
	// KindHomeDirUnknown means the user's home directory could not be resolved.
	KindHomeDirUnknown
	// KindPermission means the destination is not writable.
	KindPermission
)

var (
	// ErrNetwork marks transport failures.
	ErrNetwork = errors.New("network error")
	// ErrParse marks malformed release metadata.
	ErrParse = errors.New("malformed release metadata")
	// ErrUnknownVersion marks a version that is not published.
	ErrUnknownVersion = errors.New("unknown version")
	// ErrAssetNotFound marks a release without an archive for the platform.
	ErrAssetNotFound = errors.New("no archive for this platform")
	// ErrCorruptArchive marks an archive that cannot be unpacked or verified.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrIO marks local filesystem failures.
	ErrIO = errors.New("i/o error")
	// ErrSourceMissing marks a bundle that lacks the expected executable.
	ErrSourceMissing = errors.New("executable missing from archive")
	// ErrHomeDirUnknown marks an unresolvable home directory.
	ErrHomeDirUnknown = errors.New("home directory unknown")
	// ErrPermission marks a destination that cannot be written.
	ErrPermission = errors.New("permission denied")
)

// Kind classifies a pipeline failure.
type Kind int

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindParse:
		return "ParseError"
	case KindUnknownVersion:
		return "UnknownVersionError"
	case KindAssetNotFound:
		return "AssetNotFoundError"
	case KindCorruptArchive:
		return "CorruptArchiveError"
	case KindIO:
		return "IOError"
	case KindSourceMissing:
		return "SourceMissingError"
	case KindHomeDirUnknown:
		return "HomeDirUnknownError"
	case KindPermission:
		return "PermissionError"
	case KindUnknown:
		return "Error"
	}
	return "Error"
}

// Sentinel returns the sentinel error for the kind, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	for _, e := range classification {
		if e.kind == k {
			return e.sentinel
		}
	}
	return nil
}

// classification is ordered from most to least specific. Permission is
// checked before IO so that a denied write wrapped as ErrIO still reports
// as a permission problem.
var classification = []struct {
	kind     Kind
	sentinel error
}{
	{KindUnknownVersion, ErrUnknownVersion},
	{KindAssetNotFound, ErrAssetNotFound},
	{KindSourceMissing, ErrSourceMissing},
	{KindHomeDirUnknown, ErrHomeDirUnknown},
	{KindCorruptArchive, ErrCorruptArchive},
	{KindParse, ErrParse},
	{KindPermission, ErrPermission},
	{KindNetwork, ErrNetwork},
	{KindIO, ErrIO},
}

// KindOf classifies err. It returns KindUnknown for nil errors and for chains
// that carry no sentinel. os.ErrPermission anywhere in the chain counts as
// KindPermission unless a more specific sentinel is present.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, c := range classification {
		if c.kind == KindPermission && errors.Is(err, os.ErrPermission) {
			return KindPermission
		}
		if errors.Is(err, c.sentinel) {
			return c.kind
		}
	}
	return KindUnknown
}

// Is reports whether err classifies as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
