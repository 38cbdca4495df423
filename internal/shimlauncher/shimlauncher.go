// Package shimlauncher implements kopi's shim binary (L11): the tiny
// dispatcher installed under one name per JDK tool (java, javac, ...) that
// resolves the active version, locates the matching installed JDK, and
// replaces itself with the real tool. Grounded on
// original_source/src/bin/kopi-shim.rs's run() dispatch, expressed in the
// teacher's style of a thin cmd/ entry point delegating to a testable
// internal/ type (cmd/use.go calling into internal/utils), with the actual
// process replacement grounded on jiri's update.go:UpdateAndExecute, the
// only syscall.Exec call anywhere in the retrieved corpus.
package shimlauncher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kopi/internal/config"
	"kopi/internal/kopierr"
	"kopi/internal/logging"
	"kopi/internal/paths"
	"kopi/internal/resolver"
	"kopi/internal/storage"
	"kopi/internal/ux"

	"github.com/fatih/color"
)

var log = logging.NewLogger("shim")

// stderr is where printError and Run's own parse-failure messages go;
// overridden in tests to capture output instead of a running test
// binary's real stderr.
var stderr io.Writer = os.Stderr

// execTool replaces the current process image with toolPath, passing args
// as argv[1..] and the current environment. On Unix this is syscall.Exec
// and never returns on success; on Windows (exec_windows.go) it spawns a
// child with inherited stdio, waits, and calls os.Exit with the child's
// exit code. Either way it only returns when the tool itself could not be
// started.
var execTool = defaultExecTool

// Launcher resolves and dispatches a single shim invocation.
type Launcher struct {
	home     string
	layout   paths.Layout
	cfg      config.KopiConfig
	resolver resolver.Resolver
	repo     storage.Repository
}

// New builds a Launcher rooted at home, loading config.toml if present.
func New(home string) (*Launcher, error) {
	layout := paths.New(home)
	cfg, err := config.Load(layout.ConfigFile())
	if err != nil {
		return nil, err
	}
	return &Launcher{
		home:     home,
		layout:   layout,
		cfg:      cfg,
		resolver: resolver.New(home),
		repo:     storage.New(home),
	}, nil
}

// Run executes the full shim dispatch for argv (os.Args, including
// argv[0]) and returns the process exit code per spec §4.11/§6. It never
// returns normally on the success path on Unix, since execTool replaces
// the process; the return value only matters for Windows and for every
// error branch.
func (l *Launcher) Run(argv []string) int {
	if len(argv) == 0 {
		fmt.Fprintln(stderr, "kopi-shim: empty argv")
		return 1
	}

	toolName, err := toolNameFromArgv0(argv[0])
	if err != nil {
		fmt.Fprintln(stderr, "kopi-shim: cannot determine tool name from argv[0]")
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		printError(kopierr.IO("cannot determine working directory", err))
		return 1
	}

	req, err := l.resolver.Resolve(cwd)
	if err != nil {
		printError(err)
		if kerr, ok := kopierr.As(err); ok {
			return kerr.Kind.ExitCode()
		}
		return 1
	}
	if req.Distribution == "" {
		req.Distribution = l.cfg.DefaultDistribution
	}

	jdk, err := l.locateOrInstall(toolName, req)
	if err != nil {
		printError(err)
		if kerr, ok := kopierr.As(err); ok {
			return kerr.Kind.ExitCode()
		}
		return 1
	}

	toolPath, available, err := ResolveToolPath(jdk.Path, toolName)
	if err != nil {
		kerr := kopierr.ToolNotFound(toolName, jdk.Path, available)
		printError(kerr)
		return kerr.Kind.ExitCode()
	}

	if err := execTool(toolPath, argv[1:]); err != nil {
		printError(kopierr.IO(fmt.Sprintf("failed to execute %s", toolPath), err))
		return 1
	}
	return 0
}

// toolNameFromArgv0 takes the lowercased file stem of argv0, per spec
// §4.11 step 1. Backslash-separated (Windows-style) paths are split on
// every platform.
func toolNameFromArgv0(argv0 string) (string, error) {
	base := filepath.Base(argv0)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("unparseable argv[0]: %q", argv0)
	}
	if i := strings.LastIndexByte(base, '\\'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return "", fmt.Errorf("unparseable argv[0]: %q", argv0)
	}
	return strings.ToLower(base), nil
}

// locateOrInstall finds the installed JDK matching req, auto-installing it
// first when nothing matches and auto-install is enabled, per spec §4.11
// step 4.
func (l *Launcher) locateOrInstall(toolName string, req storage.VersionRequest) (storage.InstalledJdk, error) {
	jdk, found, err := l.locate(req)
	if err != nil {
		return storage.InstalledJdk{}, err
	}
	if found {
		return jdk, nil
	}

	spec := specString(req)
	if toolName == "kopi" || !l.cfg.AutoInstall.Enabled {
		return storage.InstalledJdk{}, kopierr.JdkNotInstalled(spec, l.cfg.AutoInstall.Enabled)
	}

	kopiPath, err := l.locateKopiBinary()
	if err != nil {
		return storage.InstalledJdk{}, kopierr.KopiNotFound(searchedKopiPaths(), true)
	}

	log.Infof("auto-installing %s via %s", spec, kopiPath)
	if err := runInstall(kopiPath, spec, l.cfg.AutoInstall.Timeout()); err != nil {
		kerr := kopierr.JdkNotInstalled(spec, true)
		kerr.AutoInstallFailed = err.Error()
		return storage.InstalledJdk{}, kerr
	}

	jdk, found, err = l.locate(req)
	if err != nil {
		return storage.InstalledJdk{}, err
	}
	if !found {
		kerr := kopierr.JdkNotInstalled(spec, true)
		kerr.AutoInstallFailed = "kopi install reported success but the JDK still did not resolve"
		return storage.InstalledJdk{}, kerr
	}
	return jdk, nil
}

// locate runs FindMatchingJdks and, on multiple matches, picks the
// greatest version — reusing the repository's own version.Less ordering
// (ascending) rather than re-deriving a string comparison, per spec
// §4.11 step 3.
func (l *Launcher) locate(req storage.VersionRequest) (storage.InstalledJdk, bool, error) {
	matches, err := l.repo.FindMatchingJdks(req)
	if err != nil {
		return storage.InstalledJdk{}, false, kopierr.IO("failed to scan installed JDKs", err)
	}
	if len(matches) == 0 {
		return storage.InstalledJdk{}, false, nil
	}
	return matches[len(matches)-1], true, nil
}

// locateKopiBinary finds the kopi binary sibling to the running kopi-shim
// executable, falling back to PATH, per spec §4.11 step 4.
func (l *Launcher) locateKopiBinary() (string, error) {
	kopiName := "kopi"
	if isWindowsGOOS() {
		kopiName += ".exe"
	}
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), kopiName)
		if info, statErr := os.Stat(sibling); statErr == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	if p, err := exec.LookPath("kopi"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("kopi binary not found")
}

func searchedKopiPaths() []string {
	var searched []string
	if exe, err := os.Executable(); err == nil {
		searched = append(searched, filepath.Dir(exe))
	}
	searched = append(searched, "PATH")
	return searched
}

// runInstall spawns "kopi install <spec>" with inherited stdio and waits
// up to timeout for it to finish, per spec §4.11 step 4 and the
// auto_install.timeout_secs config key, mirroring
// original_source/src/shim/auto_install.rs's spawn-then-poll-with-timeout
// loop with context.WithTimeout instead of a manual try_wait poll.
var runInstall = func(kopiPath, spec string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, kopiPath, "install", spec)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("installation timed out after %s", timeout)
		}
		return err
	}
	return nil
}

// ResolveToolPath computes <jdkRoot>/bin/<tool>[.exe], accounting for
// macOS's Contents/Home bundle layout, per spec §4.11 step 5. available
// lists bin/'s contents for a ToolNotFound error. Exported so cmd/kopi's
// `which` subcommand reuses exactly this macOS-bundle-aware computation
// instead of duplicating it.
func ResolveToolPath(jdkRoot, tool string) (toolPath string, available []string, err error) {
	binDir := filepath.Join(jdkRoot, "bin")
	if macHome := filepath.Join(jdkRoot, "Contents", "Home"); dirExists(filepath.Join(macHome, "bin")) {
		binDir = filepath.Join(macHome, "bin")
	}

	name := tool
	if isWindowsGOOS() {
		name += ".exe"
	}
	toolPath = filepath.Join(binDir, name)

	if info, statErr := os.Stat(toolPath); statErr == nil && !info.IsDir() {
		return toolPath, nil, nil
	}

	return "", listBinNames(binDir), fmt.Errorf("tool %q not found under %s", tool, binDir)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func listBinNames(binDir string) []string {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".exe"))
	}
	sort.Strings(names)
	return names
}

// specString reconstructs a user-facing version spec like "temurin@21" from
// a resolved VersionRequest, for auto-install spawning and error context.
func specString(req storage.VersionRequest) string {
	if req.Distribution == "" {
		return req.VersionPattern
	}
	return req.Distribution + "@" + req.VersionPattern
}

// printError renders err per spec §7's propagation policy: one line with
// the error's message, followed, for the Kinds suggestionFor knows, by a
// suggestion line built from that Kind's detail fields. Both lines go to
// the package's stderr writer; ux.Colorize adds color only when that
// writer is a terminal.
func printError(err error) {
	kerr, ok := kopierr.As(err)
	if !ok {
		fmt.Fprintln(stderr, ux.Colorize(stderr, fmt.Sprintf("kopi-shim: %v", err), color.FgRed))
		return
	}

	fmt.Fprintln(stderr, ux.Colorize(stderr, fmt.Sprintf("kopi-shim: %s", kerr.Message), color.FgRed))
	if suggestion := suggestionFor(kerr); suggestion != "" {
		fmt.Fprintln(stderr, ux.Colorize(stderr, "  "+suggestion, color.FgYellow))
	}
}

func suggestionFor(kerr *kopierr.Error) string {
	switch kerr.Kind {
	case kopierr.KindNoLocalVersion:
		return "run `kopi use <version>` or set KOPI_JAVA_VERSION"
	case kopierr.KindJdkNotInstalled:
		if kerr.AutoInstallFailed != "" {
			return fmt.Sprintf("auto-install failed: %s", kerr.AutoInstallFailed)
		}
		return fmt.Sprintf("run `kopi install %s`", kerr.Spec)
	case kopierr.KindToolNotFound:
		if len(kerr.AvailableTools) > 0 {
			return fmt.Sprintf("available tools in %s: %s", kerr.JdkPath, strings.Join(kerr.AvailableTools, ", "))
		}
		return fmt.Sprintf("no tools found in %s", kerr.JdkPath)
	case kopierr.KindKopiNotFound:
		return "install kopi's main binary alongside kopi-shim or on PATH"
	default:
		return ""
	}
}
