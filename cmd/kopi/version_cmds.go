package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kopi/internal/kopierr"
	"kopi/internal/shimlauncher"
	"kopi/internal/storage"
	"kopi/internal/ux"
)

// cmdCurrent implements `kopi current`: resolve the active VersionRequest
// from cwd and report which installed JDK it maps to, reusing the same
// resolver (L9) and storage lookup (L8) the shim dispatch path uses.
func (a *app) cmdCurrent(args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		printErr(kopierr.IO("failed to get working directory", err))
		return 1
	}

	req, err := a.resolver.Resolve(cwd)
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
		err := kopierr.JdkNotInstalled(specLabel(req), a.cfg.AutoInstall.Enabled)
		printErr(err)
		return exitCodeFor(err)
	}

	jdk := matches[len(matches)-1]
	fmt.Printf("%s %s (%s)\n", jdk.Distribution, jdk.DistributionVersion, jdk.Path)
	return 0
}

// cmdList implements `kopi list`: every JDK installed under
// <kopi_home>/jdks/, rendered with the same table renderer `kopi cache
// search` uses, generalized from the teacher's utils.PrintTable.
func (a *app) cmdList(args []string) int {
	jdks, err := a.repo.ListInstalledJdks()
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}
	if len(jdks) == 0 {
		fmt.Println("no JDKs installed; run `kopi install <version>`")
		return 0
	}

	sort.Slice(jdks, func(i, j int) bool {
		if jdks[i].Distribution != jdks[j].Distribution {
			return jdks[i].Distribution < jdks[j].Distribution
		}
		return jdks[i].DistributionVersion < jdks[j].DistributionVersion
	})

	rows := make([][]string, len(jdks))
	for i, jdk := range jdks {
		rows[i] = []string{jdk.Distribution, jdk.DistributionVersion, jdk.Path}
	}
	ux.Table(os.Stdout, []string{"Distribution", "Version", "Path"}, rows, nil)
	return 0
}

// cmdUse implements `kopi use <spec> [--global]`: writes .kopi-version in
// cwd by default, or the global default-version file with --global, per
// spec §4.9/§6's project-file/global-default precedence the resolver
// already reads back.
func (a *app) cmdUse(args []string) int {
	var global bool
	var spec string
	for _, arg := range args {
		if arg == "--global" {
			global = true
			continue
		}
		if spec == "" {
			spec = arg
		}
	}
	if spec == "" {
		fmt.Fprintln(os.Stderr, "kopi use: missing version spec")
		return 2
	}
	if _, err := storage.ParseVersionRequest(spec); err != nil {
		printErr(err)
		return exitCodeFor(err)
	}

	target := a.layout.GlobalVersionFile()
	if !global {
		cwd, err := os.Getwd()
		if err != nil {
			printErr(kopierr.IO("failed to get working directory", err))
			return 1
		}
		target = filepath.Join(cwd, ".kopi-version")
	}

	if err := os.WriteFile(target, []byte(spec+"\n"), 0o644); err != nil {
		printErr(kopierr.IO("failed to write version file", err))
		return 1
	}
	fmt.Printf("now using %s (%s)\n", spec, target)
	return 0
}

// cmdWhich implements `kopi which <tool>`: resolve the active version the
// same way `kopi current` does, then compute the tool's path exactly as
// the shim dispatch would, without executing it.
func (a *app) cmdWhich(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "kopi which: missing tool name")
		return 2
	}
	tool := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		printErr(kopierr.IO("failed to get working directory", err))
		return 1
	}
	req, err := a.resolver.Resolve(cwd)
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
		err := kopierr.JdkNotInstalled(specLabel(req), a.cfg.AutoInstall.Enabled)
		printErr(err)
		return exitCodeFor(err)
	}
	jdk := matches[len(matches)-1]

	toolPath, available, err := shimlauncher.ResolveToolPath(jdk.Path, tool)
	if err != nil {
		kerr := kopierr.ToolNotFound(tool, jdk.Path, available)
		printErr(kerr)
		return exitCodeFor(kerr)
	}
	fmt.Println(toolPath)
	return 0
}

func specLabel(req storage.VersionRequest) string {
	if req.Distribution == "" {
		return req.VersionPattern
	}
	return req.Distribution + "@" + req.VersionPattern
}
