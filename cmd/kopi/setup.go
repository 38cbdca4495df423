package main

import (
	"fmt"
	"os"

	"kopi/internal/config"
	"kopi/internal/shiminstall"
	"kopi/internal/ux"
)

// cmdSetup implements `kopi setup`: first-run initialization, grounded on
// the teacher's internal/cmd/init.go (directory creation + default-config
// writing + a final status summary), scoped to what kopi actually owns —
// no shell-completion install or PATH check, since those aren't part of
// this spec's CLI surface.
func (a *app) cmdSetup(args []string) int {
	ux.Banner(os.Stdout)

	if err := a.layout.EnsureDirs(); err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	fmt.Println("kopi home ready at", a.home)

	if _, statErr := os.Stat(a.layout.ConfigFile()); os.IsNotExist(statErr) {
		if err := config.Save(a.layout.ConfigFile(), config.Default()); err != nil {
			printErr(err)
			return exitCodeFor(err)
		}
		fmt.Println("wrote default config.toml")
	} else {
		fmt.Println("config.toml already exists, left untouched")
	}

	created, err := a.shims.CreateMissingShims(shiminstall.DefaultShimTools())
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if len(created) > 0 {
		fmt.Printf("created shims: %v\n", created)
	} else {
		fmt.Println("default shims already present")
	}

	fmt.Println("\nadd", a.layout.ShimsDir(), "to your PATH to finish setup")
	return 0
}
