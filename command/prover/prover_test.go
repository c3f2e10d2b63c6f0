// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package prover

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/consul/sdk/testutil/retry"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/hbfence/agent/heartbeat"
	"github.com/hashicorp/hbfence/agent/mounts"
)

func argFail(t *testing.T, args []string, expected string) {
	t.Helper()
	ui := cli.NewMockUi()
	c := New(ui, nil)
	c.flags.SetOutput(ui.ErrorWriter)
	c.detach = func([]string) (int, error) {
		t.Fatal("must not detach on bad arguments")
		return 0, nil
	}
	if code := c.Run(args); code != 1 {
		t.Fatalf("expected return code 1, got %d", code)
	}
	if reason := ui.ErrorWriter.String(); !strings.Contains(reason, expected) {
		t.Fatalf("bad reason: got='%s', expected='%s'", reason, expected)
	}
}

func TestProverCommand_noTabs(t *testing.T) {
	t.Parallel()
	if strings.ContainsRune(New(cli.NewMockUi(), nil).Help(), '\t') {
		t.Fatal("help has tabs")
	}
}

func TestProverCommand_BadArgs(t *testing.T) {
	t.Parallel()
	argFail(t, []string{"-primary=/mnt"}, "-guid is required")
	argFail(t, []string{"-guid=h"}, "-primary is required")
	argFail(t, []string{"-guid=h", "-primary=/mnt", "-interval=0"}, "-interval must be positive")
	argFail(t, []string{"-guid=h", "-primary=/mnt", "-timeout=soon"}, "invalid duration")
	argFail(t, []string{"-guid=h", "-primary=/mnt", "-log-level=LOUD"}, "Invalid log level")
	argFail(t, []string{"-guid=h", "-primary=/mnt", "extra"}, "Unexpected arguments")
}

func TestProverCommand_Detaches(t *testing.T) {
	t.Parallel()
	ui := cli.NewMockUi()
	c := New(ui, nil)

	var got []string
	c.isDetached = func() bool { return false }
	c.detach = func(args []string) (int, error) {
		got = args
		return 4242, nil
	}

	args := []string{"-guid=h", "-primary=/mnt/primary", "-timeout=120", "-interval=60"}
	require.Equal(t, 0, c.Run(args))
	require.Equal(t, append([]string{"prover"}, args...), got)
	require.Equal(t, "> DONE <\n", ui.OutputWriter.String())
}

func TestProverCommand_DetachResolvesLogFile(t *testing.T) {
	ui := cli.NewMockUi()
	c := New(ui, nil)

	var got []string
	c.isDetached = func() bool { return false }
	c.detach = func(args []string) (int, error) {
		got = args
		return 4242, nil
	}

	wd, err := os.Getwd()
	require.NoError(t, err)

	args := []string{"-guid=h", "-primary=/mnt/primary", "-log-file=hb.log"}
	require.Equal(t, 0, c.Run(args))
	require.Equal(t, "-log-file="+filepath.Join(wd, "hb.log"), got[len(got)-1])

	// The last -log-file wins when the child parses its arguments.
	child := New(cli.NewMockUi(), nil)
	require.NoError(t, child.flags.Parse(got[1:]))
	require.Equal(t, filepath.Join(wd, "hb.log"), child.logging.Config("prover").LogFilePath)
}

func TestProverCommand_DetachedLogsToSyslog(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		detached bool
		args     []string
		syslog   bool
	}{
		"detached":            {detached: true, syslog: true},
		"detached with file":  {detached: true, args: []string{"-log-file=/var/log/hbfence.log"}},
		"foreground":          {detached: false},
		"foreground + syslog": {detached: false, args: []string{"-syslog"}, syslog: true},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			c := New(cli.NewMockUi(), nil)
			c.isDetached = func() bool { return tc.detached }
			require.NoError(t, c.flags.Parse(tc.args))

			cfg := c.loggingConfig()
			require.Equal(t, tc.syslog, cfg.EnableSyslog)
			require.True(t, cfg.EnableSyslog || cfg.LogFilePath != "" || !tc.detached,
				"a detached prover needs a log sink")
		})
	}
}

type countingFencer struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFencer) Fence() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func TestProverCommand_WritesHeartbeats(t *testing.T) {
	base := t.TempDir()
	mount := filepath.Join(base, "primary", "vol1")
	require.NoError(t, os.MkdirAll(mount, 0755))

	ui := cli.NewMockUi()
	shutdownCh := make(chan struct{})
	c := New(ui, shutdownCh)
	c.isDetached = func() bool { return false }
	c.mounts = mounts.EnumeratorFunc(func() ([]mounts.Mount, error) {
		return []mounts.Mount{{Device: "nas:/vol1", Path: mount, FSType: mounts.FSTypeNFS}}, nil
	})
	fencer := &countingFencer{}
	c.fencer = fencer
	var logs bytes.Buffer
	c.logOutput = &syncWriter{w: &logs}

	doneCh := make(chan int, 1)
	go func() {
		doneCh <- c.Run([]string{
			"-guid=host-1",
			"-primary=" + filepath.Join(base, "primary"),
			"-timeout=5",
			"-interval=0.05",
			"-foreground",
			"-disable-metrics",
		})
	}()

	retry.Run(t, func(r *retry.R) {
		ts, err := heartbeat.NewStore("host-1").Read(mount)
		if err != nil {
			r.Fatal(err)
		}
		if ts == 0 {
			r.Fatal("no heartbeat yet")
		}
	})
	close(shutdownCh)

	select {
	case code := <-doneCh:
		require.Equal(t, 0, code)
	case <-time.After(10 * time.Second):
		t.Fatal("prover did not stop")
	}
	require.Zero(t, fencer.calls)
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
