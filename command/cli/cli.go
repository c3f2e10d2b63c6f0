// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cli

import (
	mcli "github.com/mitchellh/cli"
)

// UiErrorWriter is an io.Writer that sends each write to Ui.Error, keeping
// log output off stdout where command results are printed.
type UiErrorWriter struct {
	Ui mcli.Ui
}

func (w *UiErrorWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	w.Ui.Error(string(p))
	return n, nil
}
