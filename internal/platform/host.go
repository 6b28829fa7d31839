// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// HostInfo describes the machine beyond GOOS/GOARCH. Distribution fields are
// empty when they cannot be detected.
type HostInfo struct {
	Platform
	Distro        string
	Family        string
	Version       string
	KernelVersion string
}

// hostInfo is a test seam for gopsutil's host.InfoWithContext.
var hostInfo = host.InfoWithContext

// Describe returns the current platform enriched with distribution details.
// Detection failures degrade to the bare platform; only context cancellation
// is reported as an error.
func Describe(ctx context.Context) (*HostInfo, error) {
	hi := &HostInfo{Platform: Current()}

	stat, err := hostInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("host detection cancelled: %w", ctx.Err())
		}
		return hi, nil
	}

	hi.Distro = strings.ToLower(strings.TrimSpace(stat.Platform))
	hi.Family = strings.ToLower(strings.TrimSpace(stat.PlatformFamily))
	hi.Version = strings.TrimSpace(stat.PlatformVersion)
	hi.KernelVersion = strings.TrimSpace(stat.KernelVersion)
	return hi, nil
}

// String renders the host as "ubuntu 22.04 (linux/amd64)", falling back to
// the bare platform when no distribution was detected.
func (h *HostInfo) String() string {
	if h.Distro == "" {
		return h.Platform.String()
	}
	if h.Version == "" {
		return fmt.Sprintf("%s (%s)", h.Distro, h.Platform)
	}
	return fmt.Sprintf("%s %s (%s)", h.Distro, h.Version, h.Platform)
}
