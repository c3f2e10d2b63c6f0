// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package exec

import (
	"fmt"
	"time"

	"github.com/armon/circbuf"
)

// OutputBufferSize caps how much command output is kept for logging.
const OutputBufferSize = 4 * 1024

// RunScript runs script through the shell and waits for it. Only the tail
// of the combined output is returned. A positive timeout kills the command
// and everything it started once it expires.
func RunScript(script string, timeout time.Duration) (string, error) {
	cmd, err := Script(script)
	if err != nil {
		return "", err
	}
	output, _ := circbuf.NewBuffer(OutputBufferSize)
	cmd.Stdout = output
	cmd.Stderr = output
	SetSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command %q: %w", script, err)
	}
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case err := <-waitCh:
		if err != nil {
			return output.String(), fmt.Errorf("command %q failed: %w", script, err)
		}
		return output.String(), nil
	case <-timeoutCh:
	}

	if err := KillCommandSubtree(cmd); err != nil {
		return "", fmt.Errorf("failed to kill command %q after %s: %w", script, timeout, err)
	}
	<-waitCh
	return output.String(), fmt.Errorf("command %q timed out after %s", script, timeout)
}
