// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package fence

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RebootFencer restarts the host with the reboot(2) syscall, skipping any
// orderly shutdown.
type RebootFencer struct{}

func (RebootFencer) Fence() error {
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("reboot syscall failed: %w", err)
	}
	return nil
}

func rebootFencer() Fencer { return RebootFencer{} }
