// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package prover

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/hbfence/agent"
	"github.com/hashicorp/hbfence/agent/checks"
	"github.com/hashicorp/hbfence/agent/config"
	"github.com/hashicorp/hbfence/agent/fence"
	"github.com/hashicorp/hbfence/agent/mounts"
	hcli "github.com/hashicorp/hbfence/command/cli"
	"github.com/hashicorp/hbfence/command/flags"
	"github.com/hashicorp/hbfence/lib/telemetry"
	"github.com/hashicorp/hbfence/logging"
)

func New(ui cli.Ui, shutdownCh <-chan struct{}) *cmd {
	c := &cmd{
		UI:         ui,
		ShutdownCh: shutdownCh,
		detach:     agent.Detach,
		isDetached: agent.IsDetached,
		mounts:     mounts.PartitionEnumerator{},
	}
	c.init()
	return c
}

type cmd struct {
	UI         cli.Ui
	ShutdownCh <-chan struct{}

	flags     *flag.FlagSet
	check     *flags.CheckFlags
	logging   *flags.LogFlags
	telemetry *flags.TelemetryFlags
	help      string

	// flags
	failCmd    string
	command    string
	interval   *flags.SecondsValue
	foreground bool

	// overridden in tests
	detach     func(args []string) (int, error)
	isDetached func() bool
	mounts     mounts.Enumerator
	fencer     fence.Fencer
	logOutput  io.Writer
}

func (c *cmd) init() {
	c.check = &flags.CheckFlags{}
	c.logging = &flags.LogFlags{}
	c.telemetry = &flags.TelemetryFlags{}
	c.interval = flags.NewSecondsValue(config.DefaultInterval)

	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	c.flags.StringVar(&c.failCmd, "failcmd", "",
		"Shell command that fences this host when a check pass hangs, for "+
			"example forcing an immediate reboot. Without it the kernel SysRq "+
			"trigger and then the reboot syscall are used.")
	c.flags.StringVar(&c.command, "cmd", "",
		"Optional shell command run after the heartbeat files on every pass.")
	c.flags.Var(c.interval, "interval",
		"Time between the start of two passes, in seconds or as a duration. "+
			"Defaults to 60.")
	c.flags.BoolVar(&c.foreground, "foreground", false,
		"Stay attached to the terminal instead of detaching. Use this under "+
			"a service manager such as systemd.")

	flags.Merge(c.flags, c.check.Flags())
	flags.Merge(c.flags, c.logging.Flags())
	flags.Merge(c.flags, c.telemetry.Flags())
	c.help = flags.Usage(help, c.flags)
}

func (c *cmd) config() config.Config {
	cfg := c.check.Config(config.ModeProver)
	cfg.Interval = c.interval.Duration()
	cfg.Command = c.command
	cfg.FailCommand = c.failCmd
	cfg.Foreground = c.foreground
	return cfg
}

func (c *cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		return 1
	}
	if len(c.flags.Args()) > 0 {
		c.UI.Error(fmt.Sprintf("Unexpected arguments: %v", c.flags.Args()))
		return 1
	}

	cfg := c.config()
	if err := cfg.Validate(); err != nil {
		c.UI.Error(fmt.Sprintf("Invalid configuration: %s", err))
		c.UI.Error(c.help)
		return 1
	}
	logCfg := c.logging.Config("prover")
	if !logging.ValidateLogLevel(logCfg.LogLevel) {
		c.UI.Error(fmt.Sprintf("Invalid log level: %s. Valid log levels are: %v",
			logCfg.LogLevel, logging.AllowedLogLevels()))
		return 1
	}

	if !cfg.Foreground && !c.isDetached() {
		// The child runs from /, so relative paths must be resolved here.
		detachArgs := append([]string{"prover"}, args...)
		logFile, err := c.logging.AbsLogFile()
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		if logFile != logCfg.LogFilePath {
			detachArgs = append(detachArgs, "-log-file="+logFile)
		}
		if _, err := c.detach(detachArgs); err != nil {
			c.UI.Error(fmt.Sprintf("Failed to detach: %s", err))
			return 1
		}
		// Callers waiting on the fork read this line.
		c.UI.Output(agent.DoneSentinel)
		return 0
	}
	if c.isDetached() {
		agent.Daemonized()
	}

	out := c.logOutput
	if out == nil {
		out = &hcli.UiErrorWriter{Ui: c.UI}
	}
	logger, err := logging.Setup(c.loggingConfig(), out)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if _, err := telemetry.Init(c.telemetry.Config()); err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		return 1
	}

	fencer := c.fencer
	if fencer == nil {
		fencer = fence.New(cfg.FailCommand, logger.Named("fence"))
	}
	checker := checks.NewChecker(cfg, c.mounts, fencer, logger.Named("check"))
	a := agent.New(cfg, checker, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.handleSignals(ctx, cancel, logger.Info)

	if err := a.RunProver(ctx); err != nil {
		logger.Error("prover exited with error", "error", err)
		return 1
	}
	return 0
}

// loggingConfig returns the log setup for this process. A detached prover
// has no terminal, so it logs to syslog unless a log file was given.
func (c *cmd) loggingConfig() logging.Config {
	cfg := c.logging.Config("prover")
	if c.isDetached() && cfg.LogFilePath == "" {
		cfg.EnableSyslog = true
	}
	return cfg
}

// handleSignals cancels the prover on an exit-causing signal or shutdown.
func (c *cmd) handleSignals(ctx context.Context, cancel context.CancelFunc, log func(string, ...interface{})) {
	signalCh := make(chan os.Signal, 4)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case s := <-signalCh:
		log("caught signal, stopping", "signal", s.String())
	case <-c.ShutdownCh:
		log("shutdown requested, stopping")
	case <-ctx.Done():
		return
	}
	cancel()
}

func (c *cmd) Synopsis() string {
	return synopsis
}

func (c *cmd) Help() string {
	return c.help
}

const synopsis = "Continuously prove this host can write to shared storage"
const help = `
Usage: hbfence prover [options]

  Writes this host's heartbeat file to every shared storage mount under
  -primary, then repeats every -interval. A pass that does not finish within
  -timeout means storage access is hung; the host then fences itself so that
  the cluster can safely restart its virtual machines elsewhere.

  Unless -foreground is given the prover detaches from the terminal and
  prints "> DONE <" once it is running in the background.

      $ hbfence prover -guid=host-1 -primary=/mnt/primary \
          -failcmd='echo c > /proc/sysrq-trigger' -timeout=120 -interval=60
`
