// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package state

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/hbfence/agent"
	"github.com/hashicorp/hbfence/agent/checks"
	"github.com/hashicorp/hbfence/agent/config"
	"github.com/hashicorp/hbfence/agent/mounts"
	hcli "github.com/hashicorp/hbfence/command/cli"
	"github.com/hashicorp/hbfence/command/flags"
	"github.com/hashicorp/hbfence/logging"
)

func New(ui cli.Ui) *cmd {
	c := &cmd{UI: ui, mounts: mounts.PartitionEnumerator{}}
	c.init()
	return c
}

type cmd struct {
	UI      cli.Ui
	flags   *flag.FlagSet
	check   *flags.CheckFlags
	logging *flags.LogFlags
	help    string

	// overridden in tests
	mounts    mounts.Enumerator
	logOutput io.Writer
}

func (c *cmd) init() {
	c.check = &flags.CheckFlags{}
	c.logging = &flags.LogFlags{}

	c.flags = flag.NewFlagSet("", flag.ContinueOnError)
	flags.Merge(c.flags, c.check.Flags())
	flags.Merge(c.flags, c.logging.Flags())
	c.help = flags.Usage(help, c.flags)
}

func (c *cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		return 1
	}
	if len(c.flags.Args()) > 0 {
		c.UI.Error(fmt.Sprintf("Unexpected arguments: %v", c.flags.Args()))
		return 1
	}

	cfg := c.check.Config(config.ModeState)
	if err := cfg.Validate(); err != nil {
		c.UI.Error(fmt.Sprintf("Invalid configuration: %s", err))
		c.UI.Error(c.help)
		return 1
	}

	out := c.logOutput
	if out == nil {
		out = &hcli.UiErrorWriter{Ui: c.UI}
	}
	logCfg := c.logging.Config("state")
	logger, err := logging.Setup(logCfg, out)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	// No fencer: a hang while checking another host is only "no answer".
	checker := checks.NewChecker(cfg, c.mounts, nil, logger.Named("check"))
	a := agent.New(cfg, checker, logger)
	res := a.RunState(context.Background())

	for _, m := range res.Mounts {
		c.UI.Output(m.String())
	}

	switch {
	case res.Hung:
		c.UI.Error(fmt.Sprintf("No answer: check did not complete within %s", cfg.Timeout))
		return 1
	case !res.Decided():
		c.UI.Error("No answer: no heartbeat could be evaluated")
		return 1
	case !res.Healthy():
		return 1
	}
	return 0
}

func (c *cmd) Synopsis() string {
	return synopsis
}

func (c *cmd) Help() string {
	return c.help
}

const synopsis = "Check the freshness of a host's heartbeat"
const help = `
Usage: hbfence state [options]

  Reads the heartbeat file of -guid on every shared storage mount under
  -primary and prints one line per mount:

      <mount>: [<healthy>, <age in seconds>]

  A heartbeat is healthy when it is younger than -timeout. The exit code is
  0 when the host is healthy and 1 when it is stale, when no mount could be
  evaluated, or when the check itself did not finish within -timeout.
`
