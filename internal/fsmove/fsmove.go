// Package fsmove renames files without ever replacing an existing target.
package fsmove

import (
	"errors"
	"fmt"
	"os"
)

// ErrExists is returned when the rename target already exists.
var ErrExists = errors.New("fsmove: destination exists")

// Rename atomically moves oldpath to newpath. It fails with ErrExists
// instead of overwriting newpath.
func Rename(oldpath, newpath string) error {
	if err := rename(oldpath, newpath); err != nil {
		if errors.Is(err, ErrExists) {
			return fmt.Errorf("rename %s -> %s: %w", oldpath, newpath, ErrExists)
		}
		return err
	}
	return nil
}

// checkedRename is the portable fallback: the existence check and the
// rename are two steps, so a concurrent writer can still race it.
func checkedRename(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		return ErrExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(oldpath, newpath)
}
