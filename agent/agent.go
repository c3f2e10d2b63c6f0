// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package agent drives heartbeat check passes: continuously in prover mode,
// or once in state mode.
package agent

import (
	"context"
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/hbfence/agent/checks"
	"github.com/hashicorp/hbfence/agent/config"
)

var (
	metricsKeyPassElapsed = []string{"hbfence", "pass", "elapsed"}
	metricsKeyPassOverrun = []string{"hbfence", "pass", "overrun"}
	metricsKeyMounts      = []string{"hbfence", "mounts"}
)

// Checker runs a single bounded pass.
type Checker interface {
	Run(ctx context.Context) checks.Result
}

// Metrics is the subset of go-metrics used by the agent loop.
type Metrics interface {
	SetGauge(key []string, val float32)
	IncrCounter(key []string, val float32)
}

// Agent owns the scheduling of check passes. Passes never overlap: a new
// one starts only after the previous one completed or was abandoned.
type Agent struct {
	config  config.Config
	checker Checker
	logger  hclog.Logger
	metrics Metrics

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) bool
}

type Option func(a *Agent)

func WithMetrics(m Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithClock replaces the time source and the sleep between passes.
func WithClock(now func() time.Time, wait func(ctx context.Context, d time.Duration) bool) Option {
	return func(a *Agent) {
		a.now = now
		a.wait = wait
	}
}

// New returns an Agent for cfg.
func New(cfg config.Config, checker Checker, logger hclog.Logger, opts ...Option) *Agent {
	a := &Agent{
		config:  cfg,
		checker: checker,
		logger:  logger.Named("agent"),
		now:     time.Now,
		wait:    sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.Default()
	}
	return a
}

// sleepContext waits for d, returning false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// RunProver repeats a pass every interval until ctx is cancelled. A pass
// that takes longer than the interval is reported and the next one starts
// immediately.
func (a *Agent) RunProver(ctx context.Context) error {
	interval := a.config.Interval
	a.logger.Info("prover started",
		"guid", a.config.GUID,
		"primary", a.config.Primary,
		"timeout", a.config.Timeout,
		"interval", interval,
	)

	for {
		start := a.now()
		res := a.checker.Run(ctx)
		if ctx.Err() != nil {
			a.logger.Info("prover stopped")
			return nil
		}
		elapsed := a.now().Sub(start)
		a.report(res, elapsed)

		remaining := interval - elapsed
		if elapsed > interval {
			a.metrics.IncrCounter(metricsKeyPassOverrun, 1)
			a.logger.Warn("check pass took longer than the interval",
				"elapsed", elapsed,
				"interval", interval,
			)
			remaining = 0
		}
		if !a.wait(ctx, remaining) {
			a.logger.Info("prover stopped")
			return nil
		}
	}
}

// RunState performs exactly one pass in state mode.
func (a *Agent) RunState(ctx context.Context) checks.Result {
	start := a.now()
	res := a.checker.Run(ctx)
	a.report(res, a.now().Sub(start))
	return res
}

func (a *Agent) report(res checks.Result, elapsed time.Duration) {
	a.metrics.SetGauge(metricsKeyPassElapsed, float32(elapsed.Seconds()))
	a.metrics.SetGauge(metricsKeyMounts, float32(len(res.Mounts)))

	switch {
	case res.Hung:
		a.logger.Error("check pass hung",
			"mode", a.config.Mode,
			"fenced", res.Fenced,
		)
	case !res.Decided():
		a.logger.Debug("check pass undecided", "mounts", len(res.Mounts), "elapsed", elapsed)
	case res.Healthy():
		a.logger.Debug("check pass healthy", "mounts", len(res.Mounts), "elapsed", elapsed)
	default:
		a.logger.Warn("check pass unhealthy", "mounts", len(res.Mounts), "elapsed", elapsed)
	}
}
