// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package mounts discovers the shared filesystems a host heartbeats against.
package mounts

import (
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v3/disk"
)

// FSType is the filesystem type reported by the mount table.
type FSType string

const (
	FSTypeNFS  FSType = "nfs"
	FSTypeNFS4 FSType = "nfs4"
)

// DefaultFSTypes are the network filesystems considered shared primary
// storage when none are configured.
var DefaultFSTypes = []string{string(FSTypeNFS), string(FSTypeNFS4)}

// Mount is one entry of the mount table.
type Mount struct {
	Device string
	Path   string
	FSType FSType
}

// Enumerator lists the currently mounted filesystems.
type Enumerator interface {
	Mounts() ([]Mount, error)
}

// EnumeratorFunc adapts a function to the Enumerator interface.
type EnumeratorFunc func() ([]Mount, error)

func (f EnumeratorFunc) Mounts() ([]Mount, error) { return f() }

// PartitionEnumerator reads the host mount table.
type PartitionEnumerator struct{}

func (PartitionEnumerator) Mounts() ([]Mount, error) {
	// all=true so that network filesystems without a backing block device
	// are reported.
	parts, err := disk.Partitions(true)
	if err != nil {
		return nil, err
	}
	out := make([]Mount, 0, len(parts))
	for _, p := range parts {
		out = append(out, Mount{
			Device: p.Device,
			Path:   p.Mountpoint,
			FSType: FSType(p.Fstype),
		})
	}
	return out, nil
}

// Filter selects the mounts that hold primary storage.
type Filter struct {
	// Prefix must match the start of the mount point.
	Prefix string

	// FSTypes restricts the filesystem type. Empty matches every type.
	FSTypes []string
}

// Match reports whether m passes the filter.
func (f Filter) Match(m Mount) bool {
	if !strings.HasPrefix(m.Path, f.Prefix) {
		return false
	}
	if len(f.FSTypes) == 0 {
		return true
	}
	for _, t := range f.FSTypes {
		if string(m.FSType) == t {
			return true
		}
	}
	return false
}

// Discover returns the mount points currently matching filter. Enumeration
// failures are logged and yield no mounts for this pass; the mount table is
// read fresh on every call and the order is whatever the enumerator gives.
func Discover(e Enumerator, filter Filter, logger hclog.Logger) []string {
	all, err := e.Mounts()
	if err != nil {
		logger.Warn("failed to enumerate mounts", "prefix", filter.Prefix, "error", err)
		return []string{}
	}

	seen := make(map[string]struct{})
	paths := []string{}
	for _, m := range all {
		if !filter.Match(m) {
			continue
		}
		if _, ok := seen[m.Path]; ok {
			continue
		}
		seen[m.Path] = struct{}{}
		paths = append(paths, m.Path)
	}
	logger.Trace("discovered mounts", "prefix", filter.Prefix, "count", len(paths))
	return paths
}
