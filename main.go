// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mitchellh/cli"

	"github.com/hashicorp/hbfence/command"
	"github.com/hashicorp/hbfence/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	log.SetOutput(io.Discard)

	ui := &cli.BasicUi{Writer: os.Stdout, ErrorWriter: os.Stderr}
	args := command.RewriteArgs(filepath.Base(os.Args[0]), os.Args[1:])

	c := &cli.CLI{
		Name:         "hbfence",
		Version:      version.GetHumanVersion(),
		Args:         args,
		Commands:     command.RegisteredCommands(ui),
		HelpFunc:     cli.BasicHelpFunc("hbfence"),
		HelpWriter:   os.Stdout,
		ErrorWriter:  os.Stderr,
		Autocomplete: false,
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		return 1
	}
	return exitCode
}
