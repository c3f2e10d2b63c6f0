// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build windows

package agent

import "errors"

const (
	DetachedEnv  = "HBFENCE_DETACHED"
	DoneSentinel = "> DONE <"
)

func IsDetached() bool { return false }

// Detach is not supported; run the prover in the foreground under a
// service manager instead.
func Detach(args []string) (int, error) {
	return 0, errors.New("detaching is not supported on windows, use -foreground")
}

func Daemonized() {}
