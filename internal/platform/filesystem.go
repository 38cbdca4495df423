package platform

import (
	"os"
	"path/filepath"
)

// AdvisorySupport classifies whether a filesystem's OS-level advisory locks
// (flock/LockFileEx) can be trusted, per spec §4.3/§4.4.
type AdvisorySupport int

const (
	Native AdvisorySupport = iota
	RequiresFallback
	UnknownSupport
)

// FilesystemInfo is what the locking controller (L4) needs to decide between
// an advisory lock and the fallback protocol.
type FilesystemInfo struct {
	Kind            string
	Support         AdvisorySupport
	IsNetworkShare  bool
}

// Inspector is the narrow capability the locking controller depends on,
// following the teacher's preference for small, test-doubleable interfaces
// (evident in how each provider package in internal/providers/* exposes just
// GetXJDKs() rather than a shared struct).
type Inspector interface {
	Classify(path string) (FilesystemInfo, error)
}

// DefaultInspector is the real, OS-backed implementation;
// filesystem_unix.go and filesystem_windows.go each provide classifyPath
// for their GOOS.
type DefaultInspector struct{}

func NewDefaultInspector() DefaultInspector { return DefaultInspector{} }

// Classify probes path's filesystem, walking up to the nearest existing
// ancestor when path itself does not exist yet (e.g. a lock file about to be
// created), per spec §4.3.
func (DefaultInspector) Classify(path string) (FilesystemInfo, error) {
	probe := path
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}
	return classifyPath(probe)
}

// classify maps a filesystem type name (as reported by statfs on Unix or
// GetDriveTypeW on Windows) to the spec §4.3 table: ext4/xfs/btrfs/apfs/
// ntfs/zfs => Native; nfs/cifs/smb2 => RequiresFallback + network;
// fat/exfat => RequiresFallback; tmpfs/overlay => Unknown; anything else =>
// Unknown.
func classify(kind string) FilesystemInfo {
	switch kind {
	case "ext4", "ext3", "ext2", "xfs", "btrfs", "apfs", "ntfs", "zfs":
		return FilesystemInfo{Kind: kind, Support: Native}
	case "nfs", "nfs4", "cifs", "smb2", "smbfs":
		return FilesystemInfo{Kind: kind, Support: RequiresFallback, IsNetworkShare: true}
	case "fat", "vfat", "exfat", "msdos":
		return FilesystemInfo{Kind: kind, Support: RequiresFallback}
	case "tmpfs", "overlay", "overlayfs":
		return FilesystemInfo{Kind: kind, Support: UnknownSupport}
	default:
		return FilesystemInfo{Kind: kind, Support: UnknownSupport}
	}
}
