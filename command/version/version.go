// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package version

import (
	"fmt"

	"github.com/mitchellh/cli"
)

func New(ui cli.Ui, version string) *cmd {
	return &cmd{UI: ui, version: version}
}

type cmd struct {
	UI      cli.Ui
	version string
}

func (c *cmd) Run(_ []string) int {
	c.UI.Output(fmt.Sprintf("hbfence %s", c.version))
	return 0
}

func (c *cmd) Synopsis() string {
	return "Prints the hbfence version"
}

func (c *cmd) Help() string {
	return ""
}
