// Package diskspace probes available disk space before a JDK install, per
// spec §4.10's disk-space precheck. Grounded on
// original_source/src/storage/disk_space.rs's DiskSpaceChecker (ascend to
// the first existing ancestor directory, compare against a configured
// minimum) with the actual space query reimplemented via
// golang.org/x/sys instead of the Rust original's fs2/sysinfo crates —
// kopi's own locking package already reaches for golang.org/x/sys
// (lock_unix.go/lock_windows.go) for platform syscalls the stdlib doesn't
// expose, and free disk space is the same kind of gap.
package diskspace

import (
	"os"
	"path/filepath"

	"kopi/internal/kopierr"
)

const bytesPerMB = 1024 * 1024

// Checker enforces a minimum free-space threshold before an install
// proceeds.
type Checker struct {
	minMB uint64
}

// NewChecker builds a Checker requiring at least minMB free.
func NewChecker(minMB uint64) Checker {
	return Checker{minMB: minMB}
}

// Check verifies free space at the first existing ancestor of path
// (walking up when path itself doesn't exist yet, e.g. the not-yet-created
// jdks/ directory), returning DiskSpaceError when it falls short.
func (c Checker) Check(path string) error {
	target := path
	for {
		if _, err := os.Stat(target); err == nil {
			break
		}
		parent := filepath.Dir(target)
		if parent == target {
			break
		}
		target = parent
	}

	availableBytes, err := availableSpace(target)
	if err != nil {
		return kopierr.IO("failed to check disk space at "+target, err)
	}

	availableMB := availableBytes / bytesPerMB
	if availableMB < c.minMB {
		return kopierr.DiskSpace(c.minMB, availableMB)
	}
	return nil
}
