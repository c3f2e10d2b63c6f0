// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	gsyslog "github.com/hashicorp/go-syslog"
)

// Config is used to set up logging.
type Config struct {
	// LogLevel is the minimum level to be logged.
	LogLevel string

	// LogJSON controls outputing logs in a JSON format.
	LogJSON bool

	// Name is the name the returned logger will use to prefix log lines.
	Name string

	// EnableSyslog controls forwarding to syslog.
	EnableSyslog bool

	// SyslogFacility is the destination for syslog forwarding.
	SyslogFacility string

	// LogFilePath is the path to write the logs to the user specified file.
	LogFilePath string

	// LogRotateBytes is the user specified byte limit to rotate logs
	LogRotateBytes int

	// LogRotateMaxFiles is the maximum number of past archived log files to keep
	LogRotateMaxFiles int
}

const (
	defaultLogFileName = "hbfence.log"
	syslogTag          = "hbfence"
)

var (
	syslogRetries = 3
	syslogDelay   = time.Second
)

// Setup builds the root logger. Output goes to out, and optionally to
// syslog and a log file. Syslog matters most for the prover: once detached
// it has no terminal, so state transitions and fencing are only visible in
// the alert sink.
func Setup(config Config, out io.Writer) (hclog.InterceptLogger, error) {
	if !ValidateLogLevel(config.LogLevel) {
		return nil, fmt.Errorf("Invalid log level: %s. Valid log levels are: %v",
			config.LogLevel, allowedLogLevels)
	}

	var writers []io.Writer
	if out != nil {
		writers = append(writers, out)
	}

	if config.EnableSyslog {
		var (
			l   gsyslog.Syslogger
			err error
		)
		for i := 0; i <= syslogRetries; i++ {
			l, err = gsyslog.NewLogger(gsyslog.LOG_NOTICE, config.SyslogFacility, syslogTag)
			if err == nil {
				break
			}
			if i < syslogRetries {
				time.Sleep(syslogDelay)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("Syslog setup error: %w", err)
		}
		writers = append(writers, &SyslogWrapper{l: l})
	}

	if config.LogFilePath != "" {
		dir, fileName := filepath.Split(config.LogFilePath)
		if fileName == "" {
			fileName = defaultLogFileName
		}
		logFile := &LogFile{
			fileName: fileName,
			logPath:  dir,
			MaxBytes: config.LogRotateBytes,
			MaxFiles: config.LogRotateMaxFiles,
		}
		if err := logFile.openNew(); err != nil {
			return nil, fmt.Errorf("failed to set up file logging: %w", err)
		}
		writers = append(writers, logFile)
	}

	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Level:      LevelFromString(config.LogLevel),
		Name:       config.Name,
		Output:     io.MultiWriter(writers...),
		JSONFormat: config.LogJSON,
	})
	return logger, nil
}
