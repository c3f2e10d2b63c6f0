// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp/hbfence/command/prover"
	"github.com/hashicorp/hbfence/command/state"
	versioncmd "github.com/hashicorp/hbfence/command/version"
	"github.com/hashicorp/hbfence/version"
)

// RegisteredCommands returns the mapping of all the available commands.
func RegisteredCommands(ui cli.Ui) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"prover": func() (cli.Command, error) {
			return prover.New(ui, nil), nil
		},
		"state": func() (cli.Command, error) {
			return state.New(ui), nil
		},
		"version": func() (cli.Command, error) {
			return versioncmd.New(ui, version.GetHumanVersion()), nil
		},
	}
}
