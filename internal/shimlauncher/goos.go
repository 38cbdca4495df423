package shimlauncher

import "runtime"

func isWindowsGOOS() bool { return runtime.GOOS == "windows" }
