// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package install

import "syscall"

var errCrossDevice error = syscall.EXDEV
