// Command kopi is the per-user JDK version manager's main binary: install,
// list, switch, and inspect JDKs, plus the shim-installer commands kopi-shim
// depends on. Dispatch follows the teacher's main.go shape (a manual
// switch on os.Args, no flag-parsing framework) scaled up with one private
// helper per subcommand, the same "one exported entry point, several small
// private steps" layout internal/install.Installer already uses.
package main

import (
	"fmt"
	"io"
	"os"

	"kopi/internal/config"
	"kopi/internal/install"
	"kopi/internal/kopierr"
	"kopi/internal/locking"
	"kopi/internal/logging"
	"kopi/internal/metadata"
	"kopi/internal/metadata/foojay"
	"kopi/internal/metadata/httpsource"
	"kopi/internal/paths"
	"kopi/internal/resolver"
	"kopi/internal/shiminstall"
	"kopi/internal/storage"
	"kopi/internal/ux"
)

// app bundles the per-invocation wiring every subcommand needs, built once
// in main() from the resolved kopi_home and loaded config.
type app struct {
	home      string
	layout    paths.Layout
	cfg       config.KopiConfig
	repo      storage.Repository
	resolver  resolver.Resolver
	installer *install.Installer
	shims     *shiminstall.Installer
	source    metadata.Source
	lockCtrl  *locking.Controller
}

func newApp() (*app, error) {
	home, err := paths.ResolveHome()
	if err != nil {
		return nil, kopierr.IO("failed to resolve kopi home", err)
	}
	layout := paths.New(home)
	if err := layout.EnsureDirs(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(layout.ConfigFile())
	if err != nil {
		return nil, err
	}

	source := metadataSource(cfg)

	return &app{
		home:      home,
		layout:    layout,
		cfg:       cfg,
		repo:      storage.New(home),
		resolver:  resolver.New(home),
		installer: install.New(home, cfg, source),
		shims:     shiminstall.New(home),
		source:    source,
		lockCtrl:  locking.NewController(home, cfg.Locking),
	}, nil
}

// metadataSource picks foojay.Source by default, or the static HTTP/bundle
// source when a base URL is configured, per spec §4.7's "unified by a
// single trait" design — kopi only ever has one configured source active
// at a time, selected the same way the teacher picks one provider package
// per download rather than querying all of them.
func metadataSource(cfg config.KopiConfig) metadata.Source {
	if url := os.Getenv("KOPI_METADATA_URL"); url != "" {
		return httpsource.New(url, os.Getenv("KOPI_METADATA_TOKEN"))
	}
	return foojay.New()
}

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	argv = applyLogLevelFlags(argv)

	if len(argv) < 2 {
		ux.Banner(os.Stdout)
		fmt.Println("kopi manages per-project JDK versions and installs them on demand.")
		fmt.Println("Usage: kopi [--verbose|--quiet] <install|current|list|use|which|uninstall|cache|shim|setup> ...")
		return 1
	}

	a, err := newApp()
	if err != nil {
		printErr(err)
		return exitCodeFor(err)
	}

	switch argv[1] {
	case "install":
		return a.cmdInstall(argv[2:])
	case "current":
		return a.cmdCurrent(argv[2:])
	case "list":
		return a.cmdList(argv[2:])
	case "use":
		return a.cmdUse(argv[2:])
	case "which":
		return a.cmdWhich(argv[2:])
	case "uninstall":
		return a.cmdUninstall(argv[2:])
	case "cache":
		return a.cmdCache(argv[2:])
	case "shim":
		return a.cmdShim(argv[2:])
	case "setup":
		return a.cmdSetup(argv[2:])
	case "--version", "version":
		ux.Banner(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "kopi: unknown command %q\n", argv[1])
		return 2
	}
}

// applyLogLevelFlags sets the process-wide log level from KOPI_LOG (if set)
// and/or a --verbose or --quiet flag found anywhere in argv, then returns
// argv with those flags stripped so subcommand parsing never sees them.
// A flag takes precedence over KOPI_LOG; --verbose and --quiet are mutually
// exclusive, and the last one seen wins.
func applyLogLevelFlags(argv []string) []string {
	level := logging.LevelInfo
	if v := os.Getenv("KOPI_LOG"); v != "" {
		level = logging.ParseLevel(v)
	}

	out := make([]string, 0, len(argv))
	for _, a := range argv {
		switch a {
		case "--verbose":
			level = logging.LevelDebug
		case "--quiet":
			level = logging.LevelWarn
		default:
			out = append(out, a)
		}
	}

	logging.SetLevel(level)
	return out
}

// printErr renders err through the same suggestion table the shim uses, so
// `kopi install` and `kopi-shim`'s auto-install path produce consistent
// diagnostics for the same underlying error Kind.
func printErr(err error) {
	printErrTo(os.Stderr, err)
}

func printErrTo(w io.Writer, err error) {
	kerr, ok := kopierr.As(err)
	if !ok {
		fmt.Fprintln(w, ux.Colorize(w, fmt.Sprintf("kopi: %v", err), redAttr()))
		return
	}
	fmt.Fprintln(w, ux.Colorize(w, fmt.Sprintf("kopi: %s", kerr.Message), redAttr()))
	if s := suggestionFor(kerr); s != "" {
		fmt.Fprintln(w, ux.Colorize(w, "  "+s, yellowAttr()))
	}
}

func exitCodeFor(err error) int {
	if kerr, ok := kopierr.As(err); ok {
		return kerr.Kind.ExitCode()
	}
	return 1
}
