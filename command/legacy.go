// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"strings"
)

// StateProgramName selects the state command when the binary is invoked
// under this name without a subcommand.
const StateProgramName = "hb-state"

// RewriteArgs maps the legacy flag-only invocation onto a subcommand.
// Callers that predate subcommands run the binary with flags only, choosing
// the personality either with --state or by the name they invoke it under.
// Arguments that already start with a subcommand or a help/version flag are
// returned unchanged.
func RewriteArgs(progName string, args []string) []string {
	if len(args) == 0 || !strings.HasPrefix(args[0], "-") {
		return args
	}
	switch strings.TrimLeft(args[0], "-") {
	case "h", "help", "v", "version":
		return args
	}

	state := progName == StateProgramName
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		switch strings.TrimLeft(arg, "-") {
		case "state", "state=true", "state=1":
			state = true
			continue
		case "state=false", "state=0":
			state = false
			continue
		}
		rest = append(rest, arg)
	}

	if state {
		return append([]string{"state"}, rest...)
	}
	return append([]string{"prover"}, rest...)
}
