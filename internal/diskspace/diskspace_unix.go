//go:build linux || darwin

package diskspace

import "golang.org/x/sys/unix"

// availableSpace reports bytes available to an unprivileged process at
// path, via statfs's f_bavail (not f_bfree, which includes root-reserved
// blocks).
func availableSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
