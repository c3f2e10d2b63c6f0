// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package heartbeat

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	require.Equal(t, ".hb-host-1", FileName("host-1"))
	require.Equal(t, ".hb-host-1", NewStore("host-1").FileName)
}

func TestStore_WriteRead(t *testing.T) {
	mount := t.TempDir()
	s := NewStore("abc")

	before := EpochSeconds(time.Now())
	rec, err := s.Write(mount)
	require.NoError(t, err)
	after := EpochSeconds(time.Now())

	require.Equal(t, filepath.Join(mount, ".hb-abc"), rec.Path())

	ts, err := s.Read(mount)
	require.NoError(t, err)
	// Microsecond precision on disk.
	require.InDelta(t, rec.Timestamp, ts, 1e-6)
	require.GreaterOrEqual(t, ts, before-1e-6)
	require.LessOrEqual(t, ts, after+1e-6)

	raw, err := os.ReadFile(rec.Path())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "\n")
}

func TestStore_ReadMissing(t *testing.T) {
	s := NewStore("nobody")
	ts, err := s.Read(t.TempDir())
	require.NoError(t, err)
	require.Zero(t, ts)

	now := time.Unix(1700000000, 0)
	s.Now = func() time.Time { return now }
	require.Equal(t, float64(1700000000), s.Age(ts))
}

func TestStore_ReadFirstLine(t *testing.T) {
	mount := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(mount, ".hb-x"), []byte("1234.5\ngarbage\n"), 0644))

	ts, err := NewStore("x").Read(mount)
	require.NoError(t, err)
	require.Equal(t, 1234.5, ts)
}

func TestStore_ReadErrors(t *testing.T) {
	cases := map[string]string{
		"empty":   "",
		"garbage": "not-a-time",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			mount := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(mount, ".hb-x"), []byte(contents), 0644))

			_, err := NewStore("x").Read(mount)
			require.Error(t, err)
		})
	}
}

func TestStore_WriteUnreachable(t *testing.T) {
	s := NewStore("x")
	_, err := s.Write(filepath.Join(t.TempDir(), "unmounted"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to write heartbeat")
}

func TestStore_Age(t *testing.T) {
	now := time.Unix(1000, 0)
	s := &Store{FileName: "f", Now: func() time.Time { return now }}
	require.Equal(t, 10.0, s.Age(990))
}

func TestStore_ConcurrentReaderNeverTorn(t *testing.T) {
	mount := t.TempDir()

	var (
		mu      sync.Mutex
		written = map[float64]struct{}{}
		tick    int64
	)
	writer := &Store{FileName: ".hb-race", Now: func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return time.Unix(1600000000+tick, 0)
	}}
	reader := NewStore("race")

	// Seed so the reader always finds a file.
	rec, err := writer.Write(mount)
	require.NoError(t, err)
	written[rec.Timestamp] = struct{}{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			rec, err := writer.Write(mount)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			written[rec.Timestamp] = struct{}{}
			mu.Unlock()
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		ts, err := reader.Read(mount)
		require.NoError(t, err)
		mu.Lock()
		_, ok := written[ts]
		mu.Unlock()
		// A value may be read before the writer records it, but it must
		// be one of the generated timestamps.
		require.True(t, ok || ts > 1600000000, "torn read: %v", ts)
		require.Equal(t, ts, float64(int64(ts)), "torn read: %v", ts)
	}
}
