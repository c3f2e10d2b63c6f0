// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var now = time.Now

// LogFile is used to setup a file based logger that also performs log
// rotation by size.
type LogFile struct {
	// Name of the log file
	fileName string

	// Path to the log file
	logPath string

	// MaxBytes is the maximum number of desired bytes for a log file
	MaxBytes int

	// MaxFiles is the maximum number of rotated files to keep, 0 keeps all.
	MaxFiles int

	// FileInfo is the pointer to the current file being written to
	FileInfo *os.File

	// BytesWritten is the number of bytes written in the current log file
	BytesWritten int64

	acquire sync.Mutex
}

func (l *LogFile) path() string {
	return filepath.Join(l.logPath, l.fileName)
}

func (l *LogFile) openNew() error {
	fh, err := os.OpenFile(l.path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return err
	}
	stat, err := fh.Stat()
	if err != nil {
		fh.Close()
		return err
	}
	l.FileInfo = fh
	l.BytesWritten = stat.Size()
	return nil
}

// rotate moves the current file aside with a timestamp suffix and opens a
// fresh one.
func (l *LogFile) rotate() error {
	if err := l.FileInfo.Close(); err != nil {
		return err
	}
	ext := filepath.Ext(l.fileName)
	base := strings.TrimSuffix(l.fileName, ext)
	archived := filepath.Join(l.logPath, fmt.Sprintf("%s-%d%s", base, now().UnixNano(), ext))
	if err := os.Rename(l.path(), archived); err != nil {
		return err
	}
	if err := l.openNew(); err != nil {
		return err
	}
	return l.pruneFiles()
}

func (l *LogFile) pruneFiles() error {
	if l.MaxFiles == 0 {
		return nil
	}
	ext := filepath.Ext(l.fileName)
	pattern := filepath.Join(l.logPath, strings.TrimSuffix(l.fileName, ext)+"-*"+ext)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(matches)
	stale := len(matches) - l.MaxFiles
	for i := 0; i < stale; i++ {
		if err := os.Remove(matches[i]); err != nil {
			return err
		}
	}
	return nil
}

// Write is used to implement io.Writer
func (l *LogFile) Write(b []byte) (int, error) {
	l.acquire.Lock()
	defer l.acquire.Unlock()

	if l.FileInfo == nil {
		if err := l.openNew(); err != nil {
			return 0, err
		}
	}
	if l.MaxBytes > 0 && l.BytesWritten > 0 && l.BytesWritten+int64(len(b)) > int64(l.MaxBytes) {
		if err := l.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := l.FileInfo.Write(b)
	l.BytesWritten += int64(n)
	return n, err
}
