//go:build linux || darwin

package shimlauncher

import (
	"os"
	"syscall"
)

// defaultExecTool replaces the current process image with toolPath, the
// only syscall.Exec call in the retrieved corpus (jiri's
// update.go:UpdateAndExecute), adapted from a self-update re-exec to a
// dispatch-to-the-real-tool re-exec. It only returns on failure to exec;
// on success the calling process ceases to exist.
func defaultExecTool(toolPath string, args []string) error {
	argv := append([]string{toolPath}, args...)
	return syscall.Exec(toolPath, argv, os.Environ())
}
