//go:build linux || darwin

package locking

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryLockFile attempts a non-blocking flock, matching spec §4.4 step 3's
// try_lock_exclusive/try_lock_shared. Returns errWouldBlock when another
// holder has it, and errUnsupported when the filesystem rejects advisory
// locking outright (ENOTSUP/EOPNOTSUPP/ENOLCK — seen on some NFS/CIFS
// mounts that slipped past platform.Inspector's classification).
func tryLockFile(f *os.File, shared bool) error {
	how := unix.LOCK_EX
	if shared {
		how = unix.LOCK_SH
	}
	err := unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
	if err == nil {
		return nil
	}
	if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
		return errWouldBlock
	}
	if err == unix.ENOTSUP || err == unix.EOPNOTSUPP || err == unix.ENOLCK {
		return errUnsupported
	}
	return err
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
