package storage

import (
	"os"
	"time"

	"kopi/internal/kopierr"
)

const removeMaxAttempts = 3

// RemoveJdk deletes an installed JDK directory, per spec §4.8: rename the
// directory to "<path>.removing" first (so a half-deleted tree is never
// visible at its original path, mirroring the same visibility invariant
// L8's staging directory gives installs), then recursively delete it. If
// the delete fails — files still open, Windows read-only attributes,
// dangling Unix symlinks — makeTreeWritable prepares the tree and the
// delete is tried again, for at most removeMaxAttempts attempts in all.
// The <slug>.meta.json
// sidecar is removed last, once the directory itself is gone.
//
// RemoveJdk does not acquire a lock; callers are expected to hold the same
// exclusive locking.Installation(coordinate) scope PrepareJdkInstallation
// would have used for this package.
func (r Repository) RemoveJdk(jdk InstalledJdk) error {
	removingPath := jdk.Path + ".removing"

	if _, err := os.Stat(jdk.Path); err != nil {
		if os.IsNotExist(err) {
			return r.removeSidecar(jdk)
		}
		return kopierr.IO("failed to stat jdk directory", err)
	}

	if err := os.Rename(jdk.Path, removingPath); err != nil {
		return kopierr.IO("failed to stage jdk for removal", err)
	}

	var lastErr error
	for attempt := 0; attempt < removeMaxAttempts; attempt++ {
		lastErr = os.RemoveAll(removingPath)
		if lastErr == nil {
			break
		}
		if attempt < removeMaxAttempts-1 {
			_ = makeTreeWritable(removingPath)
			time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
		}
	}
	if lastErr != nil {
		return kopierr.IO("failed to remove jdk directory after retries", lastErr)
	}

	return r.removeSidecar(jdk)
}

func (r Repository) removeSidecar(jdk InstalledJdk) error {
	if jdk.MetadataSidecarPath == "" {
		return nil
	}
	if err := os.Remove(jdk.MetadataSidecarPath); err != nil && !os.IsNotExist(err) {
		return kopierr.IO("failed to remove metadata sidecar", err)
	}
	return nil
}
