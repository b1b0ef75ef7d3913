//go:build windows

package file

import "golang.org/x/sys/windows"

// flockLock acquires an exclusive lock on the first byte of the file.
func flockLock(fd uintptr) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(fd), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol)
}

// flockUnlock releases the lock taken by flockLock.
func flockUnlock(fd uintptr) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(fd), 0, 1, 0, ol)
}
