//go:build linux || darwin

package storage

import (
	"os"
	"path/filepath"
)

// makeTreeWritable walks path chmod'ing every entry so a stuck removal
// (permissions tightened by the JDK's own installer, a dangling symlink
// whose target vanished) can be retried, per spec §4.8's "chmod +w tree"
// remediation step.
func makeTreeWritable(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// An entry that cannot be read (an unreadable directory, or one
			// removed mid-walk) is skipped; the subsequent RemoveAll attempt
			// handles it directly.
			return nil
		}
		mode := info.Mode()
		if mode&0o200 != 0 {
			return nil
		}
		return os.Chmod(path, mode|0o200)
	})
}
