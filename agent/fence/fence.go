// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package fence forces the local host out of the cluster when it can no
// longer prove it has working access to shared storage.
//
// Every Fencer here is irreversible. None of them is retried or verified: a
// host that fences itself is trusted to actually go down, so that the HA
// controller sees a total host failure and can restart the affected VMs
// elsewhere.
package fence

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp/hbfence/agent/exec"
)

var (
	// ErrAlreadyFenced is returned by a Once fencer after the first call.
	ErrAlreadyFenced = errors.New("host already fenced")

	// ErrNoFencer is returned by an empty Chain.
	ErrNoFencer = errors.New("no fencing strategy configured")
)

// DefaultSysrqPath is the kernel magic SysRq control file.
const DefaultSysrqPath = "/proc/sysrq-trigger"

// SysrqReboot reboots immediately without syncing or unmounting.
const SysrqReboot = "b"

// commandGrace is how long a fence command may run before it is assumed to
// be taking the host down.
var commandGrace = 5 * time.Second

// Fencer removes the local host from the cluster.
type Fencer interface {
	Fence() error
}

// Func adapts a function to the Fencer interface.
type Func func() error

func (f Func) Fence() error { return f() }

// CommandFencer runs an operator supplied shell command, such as the
// --failcmd of the prover.
type CommandFencer struct {
	Command string
	Logger  hclog.Logger
}

func (c *CommandFencer) Fence() error {
	cmd, err := exec.Script(c.Command)
	if err != nil {
		return err
	}
	exec.SetSysProcAttr(cmd)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start fence command: %w", err)
	}
	c.Logger.Error("fence command started", "pid", cmd.Process.Pid, "command", c.Command)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	select {
	case err := <-waitCh:
		if err != nil {
			return fmt.Errorf("fence command failed: %w", err)
		}
		return nil
	case <-time.After(commandGrace):
		// Still running; the host is expected to go down underneath it.
		return nil
	}
}

// SysrqFencer crashes the host through the kernel SysRq trigger.
type SysrqFencer struct {
	Path string
	Key  string
}

func (s *SysrqFencer) Fence() error {
	path := s.Path
	if path == "" {
		path = DefaultSysrqPath
	}
	key := s.Key
	if key == "" {
		key = SysrqReboot
	}
	fh, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open sysrq trigger: %w", err)
	}
	defer fh.Close()
	if _, err := fh.WriteString(key); err != nil {
		return fmt.Errorf("failed to write sysrq trigger: %w", err)
	}
	return nil
}

// Chain tries each fencer in order until one succeeds.
func Chain(logger hclog.Logger, fencers ...Fencer) Fencer {
	return Func(func() error {
		if len(fencers) == 0 {
			return ErrNoFencer
		}
		var merr error
		for i, f := range fencers {
			err := f.Fence()
			if err == nil {
				return nil
			}
			logger.Error("fencing strategy failed", "strategy", i, "error", err)
			merr = multierror.Append(merr, err)
		}
		return merr
	})
}

// Once wraps a fencer so the underlying action runs at most one time.
func Once(f Fencer) Fencer {
	return &once{f: f}
}

type once struct {
	mu    sync.Mutex
	fired bool
	f     Fencer
}

func (o *once) Fence() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fired {
		return ErrAlreadyFenced
	}
	o.fired = true
	return o.f.Fence()
}

// New builds the fencing strategy for a prover. The configured command is
// tried first, then the SysRq trigger, then a direct reboot.
func New(failCommand string, logger hclog.Logger) Fencer {
	var fencers []Fencer
	if failCommand != "" {
		fencers = append(fencers, &CommandFencer{Command: failCommand, Logger: logger})
	}
	fencers = append(fencers, &SysrqFencer{}, rebootFencer())
	return Once(Chain(logger, fencers...))
}
