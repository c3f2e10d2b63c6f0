// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package flags

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hbfence/agent/config"
	"github.com/hashicorp/hbfence/agent/mounts"
	"github.com/hashicorp/hbfence/lib/telemetry"
	"github.com/hashicorp/hbfence/logging"
)

// CheckFlags are shared by every command that runs a check pass.
type CheckFlags struct {
	guid    string
	primary string
	timeout *SecondsValue
	fsTypes *CommaSliceValue
}

func (f *CheckFlags) Flags() *flag.FlagSet {
	f.timeout = NewSecondsValue(config.DefaultTimeout)
	f.fsTypes = NewCommaSliceValue(mounts.DefaultFSTypes...)

	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&f.guid, "guid", "",
		"Host id whose heartbeat file is written or checked. The file is "+
			"stored as .hb-<guid> at the root of every matching mount.")
	fs.StringVar(&f.primary, "primary", "",
		"Mount point prefix of the shared primary storage.")
	fs.Var(f.timeout, "timeout",
		"Deadline for a single check pass, in seconds or as a duration like "+
			"\"2m\". In state mode it is also the maximum heartbeat age. "+
			"Defaults to 120.")
	fs.Var(f.fsTypes, "fstype",
		"Comma separated filesystem types considered shared storage. Can be "+
			"specified multiple times. Defaults to nfs,nfs4.")
	return fs
}

// Config builds the daemon configuration for the given mode.
func (f *CheckFlags) Config(mode config.Mode) config.Config {
	cfg := config.Default(mode)
	cfg.GUID = f.guid
	cfg.Primary = f.primary
	cfg.Timeout = f.timeout.Duration()
	cfg.FSTypes = f.fsTypes.Values()
	return cfg
}

// LogFlags configure the logging sinks.
type LogFlags struct {
	level          string
	json           bool
	syslog         bool
	syslogFacility string
	file           string
	rotateBytes    int
	rotateMaxFiles int
}

func (f *LogFlags) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&f.level, "log-level", "INFO",
		"Log level: TRACE, DEBUG, INFO, WARN or ERROR.")
	fs.BoolVar(&f.json, "log-json", false,
		"Output logs in JSON format.")
	fs.BoolVar(&f.syslog, "syslog", false,
		"Forward logs to syslog.")
	fs.StringVar(&f.syslogFacility, "syslog-facility", "LOCAL0",
		"Syslog facility used with -syslog.")
	fs.StringVar(&f.file, "log-file", "",
		"Also write logs to this file. A path ending in / uses hbfence.log "+
			"in that directory.")
	fs.IntVar(&f.rotateBytes, "log-rotate-bytes", 0,
		"Rotate the -log-file once it reaches this many bytes. 0 disables "+
			"rotation.")
	fs.IntVar(&f.rotateMaxFiles, "log-rotate-max-files", 0,
		"Number of rotated log files to keep. 0 keeps all of them.")
	return fs
}

func (f *LogFlags) Config(name string) logging.Config {
	return logging.Config{
		LogLevel:          f.level,
		LogJSON:           f.json,
		Name:              name,
		EnableSyslog:      f.syslog,
		SyslogFacility:    f.syslogFacility,
		LogFilePath:       f.file,
		LogRotateBytes:    f.rotateBytes,
		LogRotateMaxFiles: f.rotateMaxFiles,
	}
}

// AbsLogFile returns -log-file as an absolute path. A trailing separator,
// which selects the default file name in that directory, is kept.
func (f *LogFlags) AbsLogFile() (string, error) {
	if f.file == "" || filepath.IsAbs(f.file) {
		return f.file, nil
	}
	abs, err := filepath.Abs(f.file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve -log-file: %w", err)
	}
	if strings.HasSuffix(f.file, string(filepath.Separator)) {
		abs += string(filepath.Separator)
	}
	return abs, nil
}

// TelemetryFlags configure the metrics sinks.
type TelemetryFlags struct {
	disable         bool
	prefix          string
	disableHostname bool
	statsdAddr      string
	statsiteAddr    string
	dogstatsdAddr   string
	dogstatsdTags   *CommaSliceValue
}

func (f *TelemetryFlags) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.BoolVar(&f.disable, "disable-metrics", false,
		"Disable metrics collection.")
	fs.StringVar(&f.prefix, "metrics-prefix", "",
		"Prefix prepended to every metric key.")
	fs.BoolVar(&f.disableHostname, "disable-hostname", false,
		"Do not prefix gauge values with the local hostname.")
	fs.StringVar(&f.statsdAddr, "statsd-addr", "",
		"Address of a statsd server to send metrics to.")
	fs.StringVar(&f.statsiteAddr, "statsite-addr", "",
		"Address of a statsite server to send metrics to.")
	fs.StringVar(&f.dogstatsdAddr, "dogstatsd-addr", "",
		"Address of a DogStatsD agent to send metrics to.")
	f.dogstatsdTags = NewCommaSliceValue()
	fs.Var(f.dogstatsdTags, "dogstatsd-tags",
		"Comma separated tags, such as \"dc:east\", added to every metric "+
			"sent to -dogstatsd-addr. Can be specified multiple times.")
	return fs
}

func (f *TelemetryFlags) Config() telemetry.Config {
	cfg := telemetry.Config{
		Disable:         f.disable,
		MetricsPrefix:   f.prefix,
		DisableHostname: f.disableHostname,
		StatsdAddr:      f.statsdAddr,
		StatsiteAddr:    f.statsiteAddr,
		DogstatsdAddr:   f.dogstatsdAddr,
	}
	if f.dogstatsdTags != nil {
		cfg.DogstatsdTags = f.dogstatsdTags.Values()
	}
	return cfg
}
