package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"kopi/internal/install"
)

// cmdInstall implements `kopi install <spec> [--force] [--dry-run]
// [--no-progress] [--timeout N] [--javafx-bundled]`, per spec's CLI
// surface. Flag parsing is hand-rolled, matching the teacher's own
// main.go, which never reaches for a flag-parsing library either.
func (a *app) cmdInstall(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "kopi install: missing version spec")
		return 2
	}

	var flags install.Flags
	var spec string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--force":
			flags.Force = true
		case "--dry-run":
			flags.DryRun = true
		case "--no-progress":
			flags.NoProgress = true
		case "--javafx-bundled":
			flags.JavaFXBundled = true
		case "--timeout":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "kopi install: --timeout requires a value")
				return 2
			}
			secs, err := strconv.Atoi(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "kopi install: invalid --timeout value %q\n", args[i])
				return 2
			}
			flags.Timeout = time.Duration(secs) * time.Second
		default:
			if spec == "" && len(args[i]) > 0 && args[i][0] != '-' {
				spec = args[i]
				continue
			}
			fmt.Fprintf(os.Stderr, "kopi install: unrecognized argument %q\n", args[i])
			return 2
		}
	}
	if spec == "" {
		fmt.Fprintln(os.Stderr, "kopi install: missing version spec")
		return 2
	}

	result, plan, err := a.installer.Install(spec, flags)
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if plan != nil {
		fmt.Printf("would install %s %s to %s\n", plan.Package.Distribution, plan.Package.DistributionVersion, plan.InstallPath)
		return 0
	}
	fmt.Printf("installed %s %s to %s\n", result.Package.Distribution, result.Package.DistributionVersion, result.InstallPath)
	return 0
}
