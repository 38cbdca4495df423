//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// availableSpace reports bytes available to the calling user at path via
// GetDiskFreeSpaceEx, which already accounts for per-user disk quotas.
func availableSpace(path string) (uint64, error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, err
	}
	return freeBytesAvailable, nil
}
