package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"kopi/internal/kopierr"
	"kopi/internal/locking"
	"kopi/internal/platform"
	"kopi/internal/storage"
	"kopi/internal/version"
)

// cmdUninstall implements `kopi uninstall <spec>`: find the matching
// installed JDK(s), refuse an ambiguous match the same way install refuses
// an underspecified version, and remove the chosen one under the same
// per-package installation lock L10 uses, since removal and (re)install
// must never race on the same package.
func (a *app) cmdUninstall(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "kopi uninstall: missing version spec")
		return 2
	}
	spec := args[0]

	req, err := storage.ParseVersionRequest(spec)
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}

	matches, err := a.repo.FindMatchingJdks(req)
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if len(matches) == 0 {
		err := kopierr.JdkNotInstalled(spec, a.cfg.AutoInstall.Enabled)
		printErr(err)
		return exitCodeFor(err)
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Distribution + "@" + m.DistributionVersion
		}
		err := kopierr.Validation(fmt.Sprintf("%q matches several installed JDKs (%s); specify one exactly", spec, strings.Join(names, ", ")))
		printErr(err)
		return exitCodeFor(err)
	}
	jdk := matches[0]

	requested, err := version.Parse(req.VersionPattern)
	if err != nil {
		printErr(kopierr.InvalidVersionFormat(spec))
		return 2
	}
	distribution := req.Distribution
	if distribution == "" {
		distribution = jdk.Distribution
	}

	coordinate := locking.PackageCoordinate{
		Distribution:    distribution,
		MajorVersion:    requested.Major,
		Kind:            locking.PackageJdk,
		Architecture:    string(platform.CurrentArchitecture()),
		OperatingSystem: string(platform.CurrentOS()),
		LibcVariant:     string(platform.CurrentLibc()),
	}

	acq, err := a.lockCtrl.Acquire(context.Background(), locking.Installation(coordinate))
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	guard := locking.NewScopedGuard(a.lockCtrl, acq)
	defer guard.Release()

	if err := a.repo.RemoveJdk(jdk); err != nil {
		printErr(err)
		return exitCodeFor(err)
	}

	fmt.Printf("uninstalled %s %s\n", jdk.Distribution, jdk.DistributionVersion)
	return 0
}
