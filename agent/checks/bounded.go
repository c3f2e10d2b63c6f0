// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package checks runs heartbeat liveness passes bounded by a wall-clock
// deadline.
package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/hbfence/agent/config"
	"github.com/hashicorp/hbfence/agent/exec"
	"github.com/hashicorp/hbfence/agent/fence"
	"github.com/hashicorp/hbfence/agent/heartbeat"
	"github.com/hashicorp/hbfence/agent/mounts"
)

var (
	metricsKeyCheckDuration  = []string{"hbfence", "check", "duration"}
	metricsKeyCheckHung      = []string{"hbfence", "check", "hung"}
	metricsKeyMountUnhealthy = []string{"hbfence", "mount", "unhealthy"}
	metricsKeyFence          = []string{"hbfence", "fence"}
)

// Metrics is the subset of go-metrics used by a Checker.
type Metrics interface {
	MeasureSince(key []string, start time.Time)
	IncrCounter(key []string, val float32)
	IncrCounterWithLabels(key []string, val float32, labels []metrics.Label)
}

// Store is the heartbeat file protocol a Checker drives.
type Store interface {
	Write(mount string) (heartbeat.Record, error)
	Read(mount string) (float64, error)
	Age(ts float64) float64
}

// Policy decides how per-mount results combine into the pass result.
type Policy int

const (
	// FirstDecisiveWins sets the pass result from the first mount that gives
	// a decisive answer. Later mounts are recorded but cannot change it, so
	// a stale mount examined after a fresh one does not fail the pass.
	FirstDecisiveWins Policy = iota
)

// MountResult is the outcome for a single mount.
type MountResult struct {
	MountPath string
	Healthy   bool

	// Age is the heartbeat age in seconds. Always zero for writes.
	Age float64

	// Decisive is false when the result did not count towards the pass.
	Decisive bool

	Err error
}

func (m MountResult) String() string {
	healthy := "False"
	if m.Healthy {
		healthy = "True"
	}
	return fmt.Sprintf("%s: [%s, %s]", m.MountPath, healthy, heartbeat.FormatTimestamp(m.Age))
}

// Result is returned fresh from every pass.
type Result struct {
	Mounts []MountResult

	// OK is nil until a mount gives a decisive answer.
	OK *bool

	// Hung is set when the worker missed the deadline. Mounts and OK are
	// empty in that case since the worker was abandoned.
	Hung bool

	// Fenced is set when a hung prover pass fenced the host.
	Fenced   bool
	FenceErr error

	CommandOutput string
	CommandErr    error

	// Err is set when the caller cancelled the wait.
	Err error

	Duration time.Duration
}

// Healthy is true only when a decisive healthy answer was obtained.
func (r Result) Healthy() bool {
	return r.OK != nil && *r.OK
}

// Decided reports whether any mount gave a decisive answer.
func (r Result) Decided() bool {
	return r.OK != nil
}

// Checker runs one liveness pass per call to Run.
type Checker struct {
	Mode    config.Mode
	Timeout time.Duration

	Store  Store
	Mounts mounts.Enumerator
	Filter mounts.Filter

	// Command is an optional shell command run after the mounts.
	Command string

	// Fencer is invoked when a prover pass hangs.
	Fencer fence.Fencer

	Policy  Policy
	Logger  hclog.Logger
	Metrics Metrics
}

// NewChecker builds a Checker from the daemon configuration.
func NewChecker(cfg config.Config, enum mounts.Enumerator, fencer fence.Fencer, logger hclog.Logger) *Checker {
	return &Checker{
		Mode:    cfg.Mode,
		Timeout: cfg.Timeout,
		Store:   heartbeat.NewStore(cfg.GUID),
		Mounts:  enum,
		Filter:  cfg.MountFilter(),
		Command: cfg.Command,
		Fencer:  fencer,
		Policy:  FirstDecisiveWins,
		Logger:  logger,
	}
}

func (c *Checker) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}

func (c *Checker) metrics() Metrics {
	if c.Metrics == nil {
		return metrics.Default()
	}
	return c.Metrics
}

// Run executes a pass on a dedicated worker and waits at most Timeout for
// it. Filesystem calls against an unreachable NFS server can block in the
// kernel with no way to interrupt them, so a worker that misses the
// deadline is abandoned rather than stopped; it may still finish later and
// its result is dropped.
//
// A hung pass in prover mode fences the host. In state mode it only yields
// an undecided result.
func (c *Checker) Run(ctx context.Context) Result {
	start := time.Now()
	logger := c.logger()
	m := c.metrics()
	defer m.MeasureSince(metricsKeyCheckDuration, start)

	// Buffered so an abandoned worker can always deliver and exit.
	doneCh := make(chan Result, 1)
	go func() {
		doneCh <- c.pass()
	}()

	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()

	select {
	case res := <-doneCh:
		res.Duration = time.Since(start)
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err(), Duration: time.Since(start)}
	case <-timer.C:
	}

	res := Result{Hung: true}
	m.IncrCounter(metricsKeyCheckHung, 1)
	logger.Error("check pass did not complete in time, abandoning worker",
		"mode", c.Mode,
		"timeout", c.Timeout,
	)

	if c.Mode == config.ModeProver && c.Fencer != nil {
		logger.Error("fencing host")
		m.IncrCounter(metricsKeyFence, 1)
		res.FenceErr = c.Fencer.Fence()
		res.Fenced = res.FenceErr == nil
		if res.FenceErr != nil {
			logger.Error("failed to fence host", "error", res.FenceErr)
		}
	}
	res.Duration = time.Since(start)
	return res
}

// pass runs on the worker goroutine.
func (c *Checker) pass() (res Result) {
	logger := c.logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("check pass panicked", "panic", r)
			res = Result{Err: fmt.Errorf("check pass panicked: %v", r)}
		}
	}()

	paths := mounts.Discover(c.Mounts, c.Filter, logger)
	res.Mounts = make([]MountResult, 0, len(paths))

	agg := aggregator{policy: c.Policy}
	for _, p := range paths {
		mr := c.checkMount(p)
		if !mr.Healthy {
			c.metrics().IncrCounterWithLabels(metricsKeyMountUnhealthy, 1,
				[]metrics.Label{{Name: "mount", Value: p}})
		}
		res.Mounts = append(res.Mounts, mr)
		if mr.Decisive {
			agg.observe(mr.Healthy)
		}
	}
	res.OK = agg.ok

	if c.Command != "" {
		out, err := exec.RunScript(c.Command, c.Timeout)
		res.CommandOutput = out
		res.CommandErr = err
		if err != nil {
			logger.Warn("check command failed", "command", c.Command, "output", out, "error", err)
		} else {
			logger.Debug("check command completed", "command", c.Command)
		}
	}
	return res
}

func (c *Checker) checkMount(path string) MountResult {
	logger := c.logger()
	mr := MountResult{MountPath: path, Decisive: true}

	if c.Mode == config.ModeProver {
		if _, err := c.Store.Write(path); err != nil {
			logger.Error("failed to write heartbeat", "mount", path, "error", err)
			mr.Err = err
			return mr
		}
		mr.Healthy = true
		logger.Trace("wrote heartbeat", "mount", path)
		return mr
	}

	ts, err := c.Store.Read(path)
	if err != nil {
		logger.Error("failed to read heartbeat", "mount", path, "error", err)
		mr.Err = err
		ts = 0
	}
	mr.Age = c.Store.Age(ts)
	if mr.Err != nil {
		return mr
	}

	timeout := c.Timeout.Seconds()
	switch {
	case mr.Age < timeout:
		mr.Healthy = true
	case mr.Age > timeout:
		logger.Warn("stale heartbeat", "mount", path, "age", mr.Age, "timeout", timeout)
	default:
		// Exactly on the boundary: neither fresh nor stale.
		mr.Decisive = false
	}
	return mr
}

type aggregator struct {
	policy Policy
	ok     *bool
}

func (a *aggregator) observe(healthy bool) {
	switch a.policy {
	case FirstDecisiveWins:
		if a.ok == nil {
			a.ok = &healthy
		}
	}
}
