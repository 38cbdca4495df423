package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"kopi/internal/locking"
	"kopi/internal/metadata"
	"kopi/internal/ux"
)

// cmdCache implements `kopi cache {search|refresh|info}`, per spec's CLI
// surface, operating on the same cache/metadata.json the installer's
// loadMetadata step consults.
func (a *app) cmdCache(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "kopi cache: missing subcommand (search|refresh|info)")
		return 2
	}

	switch args[0] {
	case "search":
		return a.cacheSearch(args[1:])
	case "refresh":
		return a.cacheRefresh(args[1:])
	case "info":
		return a.cacheInfo(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "kopi cache: unknown subcommand %q\n", args[0])
		return 2
	}
}

func (a *app) cacheSearch(args []string) int {
	packages, _, err := metadata.LoadCache(a.layout.CacheMetadataFile())
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}

	var filter string
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}

	var rows [][]string
	for _, pkg := range packages {
		if filter != "" && !strings.Contains(strings.ToLower(pkg.Distribution), filter) {
			continue
		}
		rows = append(rows, []string{pkg.Distribution, pkg.DistributionVersion, string(pkg.OperatingSystem), string(pkg.Architecture)})
	}
	if len(rows) == 0 {
		fmt.Println("no cached packages match; run `kopi cache refresh`")
		return 0
	}
	ux.Table(os.Stdout, []string{"Distribution", "Version", "OS", "Arch"}, rows, nil)
	return 0
}

func (a *app) cacheRefresh(args []string) int {
	progress := func(msg string) { fmt.Println(msg) }

	acq, err := a.lockCtrl.Acquire(context.Background(), locking.CacheWriter)
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	guard := locking.NewScopedGuard(a.lockCtrl, acq)
	defer guard.Release()

	packages, err := a.source.FetchAll(progress)
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}

	if err := metadata.SaveCache(a.layout.CacheMetadataFile(), a.source.ID(), packages, time.Now()); err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	fmt.Printf("refreshed %d packages from %s\n", len(packages), a.source.Name())
	return 0
}

func (a *app) cacheInfo(args []string) int {
	packages, updatedAt, err := metadata.LoadCache(a.layout.CacheMetadataFile())
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if updatedAt.IsZero() {
		fmt.Println("cache is empty; run `kopi cache refresh`")
		return 0
	}
	fmt.Printf("source: %s\n", a.source.Name())
	fmt.Printf("packages: %d\n", len(packages))
	fmt.Printf("last updated: %s\n", updatedAt.Format(time.RFC3339))
	return 0
}
