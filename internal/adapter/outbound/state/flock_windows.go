//go:build windows

package state

import "golang.org/x/sys/windows"

// flockLock takes an exclusive lock on the session lock file, blocking
// until it is available so concurrent fleetdesk commands serialize their
// writes the same way the Unix build does.
func flockLock(fd uintptr) error {
	var ol windows.Overlapped
	return windows.LockFileEx(windows.Handle(fd), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, &ol)
}

// flockUnlock releases the lock taken by flockLock.
func flockUnlock(fd uintptr) error {
	var ol windows.Overlapped
	return windows.UnlockFileEx(windows.Handle(fd), 0, 1, 0, &ol)
}
