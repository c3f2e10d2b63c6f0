// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package telemetry

import (
	"time"

	"github.com/armon/go-metrics"
	"github.com/armon/go-metrics/datadog"
)

// Config is the telemetry section of the daemon flags.
type Config struct {
	// Disable leaves the default go-metrics black hole in place.
	Disable bool

	// MetricsPrefix is prepended to every metric key.
	MetricsPrefix string

	DisableHostname bool

	StatsiteAddr  string
	StatsdAddr    string
	DogstatsdAddr string
	DogstatsdTags []string
}

// sinkFn takes Config and builds a sink to be composed in the FanoutSink
type sinkFn func(Config) (metrics.MetricSink, error)

func statsiteSink(cfg Config) (metrics.MetricSink, error) {
	addr := cfg.StatsiteAddr
	if addr == "" {
		return nil, nil
	}
	return metrics.NewStatsiteSink(addr)
}

func statsdSink(cfg Config) (metrics.MetricSink, error) {
	addr := cfg.StatsdAddr
	if addr == "" {
		return nil, nil
	}
	return metrics.NewStatsdSink(addr)
}

func dogstatsdSink(cfg Config) (metrics.MetricSink, error) {
	addr := cfg.DogstatsdAddr
	if addr == "" {
		return nil, nil
	}
	sink, err := datadog.NewDogStatsdSink(addr, "")
	if err != nil {
		return nil, err
	}
	sink.SetTags(cfg.DogstatsdTags)
	return sink, nil
}

// initSinks composes all configured external sinks into a FanoutSink. Every
// sink must initialise; a bad address aborts setup.
func initSinks(cfg Config) (metrics.FanoutSink, error) {
	var sinks metrics.FanoutSink
	for _, fn := range []sinkFn{statsiteSink, statsdSink, dogstatsdSink} {
		s, err := fn(cfg)
		if err != nil {
			return nil, err
		}
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	return sinks, nil
}

// Init configures the global go-metrics instance. An in-memory sink is
// always present so that a SIGUSR1 dumps the recent metrics to stderr,
// which is often the only way to inspect a detached prover.
func Init(cfg Config) (*metrics.InmemSink, error) {
	if cfg.Disable {
		return nil, nil
	}
	// Aggregate on 10 second intervals for 1 minute.
	memSink := metrics.NewInmemSink(10*time.Second, time.Minute)
	metrics.DefaultInmemSignal(memSink)

	mCfg := metrics.DefaultConfig(cfg.MetricsPrefix)
	mCfg.EnableHostname = !cfg.DisableHostname

	sinks, err := initSinks(cfg)
	if err != nil {
		return nil, err
	}

	if len(sinks) == 0 {
		// Hostname is irrelevant for on-host telemetry
		mCfg.EnableHostname = false
		if _, err := metrics.NewGlobal(mCfg, memSink); err != nil {
			return nil, err
		}
		return memSink, nil
	}

	sinks = append(sinks, memSink)
	if _, err := metrics.NewGlobal(mCfg, sinks); err != nil {
		return nil, err
	}
	return memSink, nil
}
