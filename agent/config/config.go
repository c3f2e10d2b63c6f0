// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package config holds the immutable daemon configuration built from the
// command line.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp/hbfence/agent/heartbeat"
	"github.com/hashicorp/hbfence/agent/mounts"
)

const (
	DefaultTimeout  = 120 * time.Second
	DefaultInterval = 60 * time.Second
)

// Mode selects what a check pass does with each heartbeat file.
type Mode int

const (
	// ModeProver writes the local host's heartbeat and fences on a hang.
	ModeProver Mode = iota

	// ModeState reads a host's heartbeat once and reports its freshness.
	ModeState
)

func (m Mode) String() string {
	switch m {
	case ModeProver:
		return "prover"
	case ModeState:
		return "state"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config is created once at startup and never modified afterwards.
type Config struct {
	// GUID identifies the host whose heartbeat is written or checked.
	GUID string

	// Primary is the mount point prefix of shared primary storage.
	Primary string

	// FSTypes limits discovery to these filesystem types.
	FSTypes []string

	Timeout  time.Duration
	Interval time.Duration

	// Command runs after the heartbeat files on every pass.
	Command string

	// FailCommand fences the host when a pass hangs.
	FailCommand string

	Mode Mode

	// Foreground skips detaching from the controlling terminal.
	Foreground bool
}

// Default returns a Config with the default timings and filesystem types.
func Default(mode Mode) Config {
	return Config{
		Mode:     mode,
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
		FSTypes:  append([]string(nil), mounts.DefaultFSTypes...),
	}
}

// FileName is the heartbeat file name kept on every mount.
func (c Config) FileName() string {
	return heartbeat.FileName(c.GUID)
}

// MountFilter is the discovery filter for this configuration.
func (c Config) MountFilter() mounts.Filter {
	return mounts.Filter{Prefix: c.Primary, FSTypes: c.FSTypes}
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var merr *multierror.Error
	if c.GUID == "" {
		merr = multierror.Append(merr, fmt.Errorf("-guid is required"))
	} else if strings.ContainsAny(c.GUID, `/\`) {
		merr = multierror.Append(merr, fmt.Errorf("-guid must not contain path separators: %q", c.GUID))
	}
	if c.Primary == "" {
		merr = multierror.Append(merr, fmt.Errorf("-primary is required"))
	}
	if c.Timeout <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("-timeout must be positive, got %s", c.Timeout))
	}
	if c.Mode == ModeProver && c.Interval <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("-interval must be positive, got %s", c.Interval))
	}
	return merr.ErrorOrNil()
}
