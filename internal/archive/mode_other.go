//go:build !linux && !darwin

package archive

import "os"

// applyUnixMode is a no-op on Windows: NTFS has no concept of Unix
// permission bits, and os.Chmod there only toggles the read-only attribute,
// which os.OpenFile already set correctly at creation time.
func applyUnixMode(path string, mode os.FileMode) error {
	return nil
}
