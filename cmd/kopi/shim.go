package main

import (
	"fmt"
	"os"
	"strings"
)

// cmdShim implements `kopi shim {add|remove|list|verify}`, the CLI surface
// for L12's installer. "add" accepts an optional --force, matching
// install's own flag.
func (a *app) cmdShim(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "kopi shim: missing subcommand (add|remove|list|verify)")
		return 2
	}

	switch args[0] {
	case "add":
		return a.shimAdd(args[1:])
	case "remove":
		return a.shimRemove(args[1:])
	case "list":
		return a.shimList(args[1:])
	case "verify":
		return a.shimVerify(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "kopi shim: unknown subcommand %q\n", args[0])
		return 2
	}
}

func (a *app) shimAdd(args []string) int {
	var force bool
	var tool string
	for _, arg := range args {
		if arg == "--force" {
			force = true
			continue
		}
		if tool == "" {
			tool = arg
		}
	}
	if tool == "" {
		fmt.Fprintln(os.Stderr, "kopi shim add: missing tool name")
		return 2
	}
	if err := a.shims.CreateShim(tool, force); err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	fmt.Printf("created shim for %s\n", tool)
	return 0
}

func (a *app) shimRemove(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "kopi shim remove: missing tool name")
		return 2
	}
	if err := a.shims.RemoveShim(args[0]); err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	fmt.Printf("removed shim for %s\n", args[0])
	return 0
}

func (a *app) shimList(args []string) int {
	shims, err := a.shims.ListShims()
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if len(shims) == 0 {
		fmt.Println("no shims installed")
		return 0
	}
	fmt.Println(strings.Join(shims, "\n"))
	return 0
}

func (a *app) shimVerify(args []string) int {
	problems, err := a.shims.VerifyShims()
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if len(problems) == 0 {
		fmt.Println("all shims healthy")
		return 0
	}
	for _, p := range problems {
		fmt.Printf("%s: %s\n", p.Name, p.Reason)
		if err := a.shims.RepairShim(p.Name); err != nil {
			fmt.Fprintf(os.Stderr, "  failed to repair: %v\n", err)
		} else {
			fmt.Printf("  repaired\n")
		}
	}
	return 0
}
