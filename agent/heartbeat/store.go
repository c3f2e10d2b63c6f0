// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package heartbeat reads and writes the per-host timestamp files kept on
// shared storage.
package heartbeat

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hbfence/lib/file"
)

// FilePrefix is prepended to the host id to build the heartbeat file name.
const FilePrefix = ".hb-"

// filePerms leaves the heartbeat readable by checkers on other hosts.
const filePerms = 0644

// FileName returns the heartbeat file name for the given host id.
func FileName(guid string) string {
	return FilePrefix + guid
}

// Record is a single heartbeat as stored on one mount.
type Record struct {
	MountPath string
	FileName  string
	Timestamp float64
}

// Path is the full location of the heartbeat file.
func (r Record) Path() string {
	return filepath.Join(r.MountPath, r.FileName)
}

// Store reads and writes one host's heartbeat file on any mount.
type Store struct {
	FileName string

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// NewStore returns a Store for the heartbeat file of the given host id.
func NewStore(guid string) *Store {
	return &Store{FileName: FileName(guid)}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Write records the current time in the heartbeat file under mount. The
// value is written to a temporary file and renamed into place.
func (s *Store) Write(mount string) (Record, error) {
	rec := Record{
		MountPath: mount,
		FileName:  s.FileName,
		Timestamp: EpochSeconds(s.now()),
	}
	if err := file.WriteAtomic(rec.Path(), []byte(FormatTimestamp(rec.Timestamp)), filePerms); err != nil {
		return rec, fmt.Errorf("failed to write heartbeat %q: %w", rec.Path(), err)
	}
	return rec, nil
}

// Read returns the timestamp stored in the heartbeat file under mount. A
// missing file is a valid answer and reads as 0, which is infinitely old.
func (s *Store) Read(mount string) (float64, error) {
	path := filepath.Join(mount, s.FileName)
	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open heartbeat %q: %w", path, err)
	}
	defer fh.Close()

	line, err := bufio.NewReader(fh).ReadString('\n')
	if err != nil && line == "" {
		// An empty file is treated like a torn value, which an atomic
		// writer never produces.
		return 0, fmt.Errorf("failed to read heartbeat %q: %w", path, err)
	}
	ts, err := ParseTimestamp(line)
	if err != nil {
		return 0, fmt.Errorf("failed to parse heartbeat %q: %w", path, err)
	}
	return ts, nil
}

// Age returns how many seconds old a heartbeat timestamp is.
func (s *Store) Age(ts float64) float64 {
	return EpochSeconds(s.now()) - ts
}

// EpochSeconds converts t to fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FormatTimestamp renders an epoch timestamp the way it is kept on disk.
func FormatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 6, 64)
}

// ParseTimestamp parses a heartbeat line.
func ParseTimestamp(line string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(line), 64)
}
