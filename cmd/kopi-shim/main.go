// Command kopi-shim is the tool dispatcher kopi installs once per managed
// JDK tool (as java, javac, jshell, ...). It never prints usage or parses
// flags of its own: every argument after argv[0] is forwarded verbatim to
// the resolved tool.
package main

import (
	"fmt"
	"os"

	"kopi/internal/paths"
	"kopi/internal/shimlauncher"
)

func main() {
	home, err := paths.ResolveHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kopi-shim: %v\n", err)
		os.Exit(1)
	}

	launcher, err := shimlauncher.New(home)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kopi-shim: %v\n", err)
		os.Exit(1)
	}

	os.Exit(launcher.Run(os.Args))
}
