//go:build !linux

package fsmove

func rename(oldpath, newpath string) error {
	return checkedRename(oldpath, newpath)
}
