// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-uuid"
)

// WriteAtomic writes the given contents to a temporary file in the same
// directory, does an fsync and then renames the file to its real path. A
// concurrent reader of path sees either the previous contents or the new
// contents, never a partial write.
//
// The parent directory is not created. Heartbeat targets live on mount
// points, and a missing directory means the mount is gone.
func WriteAtomic(path string, contents []byte, perms os.FileMode) error {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return err
	}
	dir, base := filepath.Split(path)
	tempPath := filepath.Join(dir, fmt.Sprintf(".%s-%s.tmp", base, id))

	fh, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_EXCL, perms)
	if err != nil {
		return err
	}
	if _, err := fh.Write(contents); err != nil {
		fh.Close()
		os.Remove(tempPath)
		return err
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(tempPath)
		return err
	}
	if err := fh.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
