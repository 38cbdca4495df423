//go:build windows

package platform

import (
	"strings"

	"golang.org/x/sys/windows"
)

// classifyPath uses GetVolumeInformationW for the filesystem name
// (NTFS/FAT32/exFAT/…) and GetDriveTypeW to distinguish a network share,
// generalizing the direct syscall style the teacher uses for registry and
// ShellExecuteW access in internal/cmd/use.go (setSystemEnvironmentVariable,
// shellExecute) to a different Windows API family.
func classifyPath(path string) (FilesystemInfo, error) {
	root := volumeRoot(path)
	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return FilesystemInfo{}, err
	}

	var fsNameBuf [261]uint16
	err = windows.GetVolumeInformation(
		rootPtr,
		nil, 0,
		nil, nil, nil,
		&fsNameBuf[0], uint32(len(fsNameBuf)),
	)
	if err != nil {
		return FilesystemInfo{}, err
	}
	fsName := strings.ToLower(windows.UTF16ToString(fsNameBuf[:]))

	driveType := windows.GetDriveType(rootPtr)
	isNetwork := driveType == windows.DRIVE_REMOTE

	var kind string
	switch {
	case strings.Contains(fsName, "ntfs"):
		kind = "ntfs"
	case strings.Contains(fsName, "exfat"):
		kind = "exfat"
	case strings.Contains(fsName, "fat"):
		kind = "fat"
	default:
		kind = fsName
	}

	if isNetwork {
		return FilesystemInfo{Kind: "smb2", Support: RequiresFallback, IsNetworkShare: true}, nil
	}
	return classify(kind), nil
}

func volumeRoot(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		return path[:2] + `\`
	}
	return `C:\`
}
