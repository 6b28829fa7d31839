// SPDX-License-Identifier: MPL-2.0

//go:build windows

package install

import "syscall"

// errCrossDevice is ERROR_NOT_SAME_DEVICE.
var errCrossDevice error = syscall.Errno(17)
