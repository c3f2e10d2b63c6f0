// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build !windows

package agent

import (
	"fmt"
	"os"
	osexec "os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// DetachedEnv marks a process that was started by Detach.
const DetachedEnv = "HBFENCE_DETACHED"

// DoneSentinel is printed by the parent once the detached child is running.
const DoneSentinel = "> DONE <"

// IsDetached reports whether this process is the detached child.
func IsDetached() bool {
	return os.Getenv(DetachedEnv) == "1"
}

// Detach starts a copy of the running binary with args in a new session,
// with no controlling terminal and stdio on /dev/null. It returns the child
// pid; the caller is expected to exit.
func Detach(args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate executable: %w", err)
	}
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, err
	}
	defer devnull.Close()

	cmd := osexec.Command(exe, args...)
	cmd.Env = append(os.Environ(), DetachedEnv+"=1")
	cmd.Dir = "/"
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start detached process: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, err
	}
	return pid, nil
}

// Daemonized finishes setup inside the detached child.
func Daemonized() {
	unix.Umask(0)
}
