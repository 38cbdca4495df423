//go:build linux

package platform

import "golang.org/x/sys/unix"

// Magic numbers from linux/magic.h, matched against spec §4.3's table.
const (
	extMagic     = 0xEF53
	xfsMagic     = 0x58465342
	btrfsMagic   = 0x9123683E
	nfsMagic     = 0x6969
	smbMagic     = 0x517B
	cifsMagic    = 0xFF534D42
	tmpfsMagic   = 0x01021994
	overlayMagic = 0x794C7630
	msdosMagic   = 0x4D44
	zfsMagic     = 0x2FC12FC1
)

func fsTypeName(stat unix.Statfs_t) string {
	switch int64(stat.Type) {
	case extMagic:
		return "ext4"
	case xfsMagic:
		return "xfs"
	case btrfsMagic:
		return "btrfs"
	case nfsMagic:
		return "nfs"
	case smbMagic, cifsMagic:
		return "smb2"
	case tmpfsMagic:
		return "tmpfs"
	case overlayMagic:
		return "overlay"
	case msdosMagic:
		return "fat"
	case zfsMagic:
		return "zfs"
	default:
		return "unknown"
	}
}
