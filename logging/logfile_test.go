// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogFile_openNew(t *testing.T) {
	logFile := LogFile{
		fileName: "hbfence.log",
		logPath:  t.TempDir(),
	}
	require.NoError(t, logFile.openNew())
	defer logFile.FileInfo.Close()

	_, err := os.Stat(logFile.FileInfo.Name())
	require.NoError(t, err)
	require.Zero(t, logFile.BytesWritten)
}

func TestLogFile_Rotation_MaxBytes(t *testing.T) {
	tempDir := t.TempDir()
	logFile := LogFile{
		fileName: "hbfence.log",
		logPath:  tempDir,
		MaxBytes: 10,
	}
	tick := int64(0)
	now = func() time.Time {
		tick++
		return time.Unix(0, tick)
	}
	t.Cleanup(func() { now = time.Now })

	_, err := logFile.Write([]byte("Hello World"))
	require.NoError(t, err)
	_, err = logFile.Write([]byte("Second File"))
	require.NoError(t, err)
	require.Len(t, listDir(t, tempDir), 2)
}

func TestLogFile_PruneFiles(t *testing.T) {
	tempDir := t.TempDir()
	logFile := LogFile{
		fileName: "hbfence.log",
		logPath:  tempDir,
		MaxBytes: 1,
		MaxFiles: 1,
	}
	tick := int64(0)
	now = func() time.Time {
		tick++
		return time.Unix(0, tick)
	}
	t.Cleanup(func() { now = time.Now })

	for _, msg := range []string{"one", "two", "three", "four"} {
		_, err := logFile.Write([]byte(msg))
		require.NoError(t, err)
	}

	files := listDir(t, tempDir)
	require.Equal(t, []string{"hbfence-3.log", "hbfence.log"}, files)

	raw, err := os.ReadFile(logFile.path())
	require.NoError(t, err)
	require.Equal(t, "four", string(raw))
}

func listDir(t *testing.T, name string) []string {
	t.Helper()
	fh, err := os.Open(name)
	require.NoError(t, err)
	files, err := fh.Readdirnames(100)
	require.NoError(t, err)
	sort.Strings(files)
	return files
}
