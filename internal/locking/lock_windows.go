//go:build windows

package locking

import (
	"os"

	"golang.org/x/sys/windows"
)

// tryLockFile uses LockFileEx with LOCKFILE_FAIL_IMMEDIATELY, the Windows
// analogue of flock's LOCK_NB, matching internal/cmd/use.go's existing habit
// of dropping to golang.org/x/sys/windows for APIs the stdlib doesn't
// expose (there: registry.OpenKey for setSystemEnvironmentVariable). Returns
// errUnsupported for the non-violation failures that mean this filesystem
// doesn't honor file locking at all (seen on some SMB/network shares),
// rather than a transient contention failure.
func tryLockFile(f *os.File, shared bool) error {
	var flags uint32 = windows.LOCKFILE_FAIL_IMMEDIATELY
	if !shared {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol)
	if err == nil {
		return nil
	}
	if err == windows.ERROR_LOCK_VIOLATION || err == windows.ERROR_IO_PENDING {
		return errWouldBlock
	}
	if err == windows.ERROR_NOT_SUPPORTED || err == windows.ERROR_INVALID_FUNCTION {
		return errUnsupported
	}
	return err
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
