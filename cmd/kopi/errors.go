package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"kopi/internal/kopierr"
)

func redAttr() color.Attribute    { return color.FgRed }
func yellowAttr() color.Attribute { return color.FgYellow }

// suggestionFor maps an error Kind to the fixed per-kind suggestion spec §7
// requires, extending internal/shimlauncher's narrower table (which only
// covers the Kinds a shim dispatch can produce) to every Kind the CLI
// surface as a whole can see.
func suggestionFor(kerr *kopierr.Error) string {
	switch kerr.Kind {
	case kopierr.KindNoLocalVersion:
		return "run `kopi use <version>` or set KOPI_JAVA_VERSION"
	case kopierr.KindJdkNotInstalled:
		return fmt.Sprintf("run `kopi install %s`", kerr.Spec)
	case kopierr.KindToolNotFound:
		if len(kerr.AvailableTools) > 0 {
			return fmt.Sprintf("available tools in %s: %s", kerr.JdkPath, strings.Join(kerr.AvailableTools, ", "))
		}
		return fmt.Sprintf("no tools found in %s", kerr.JdkPath)
	case kopierr.KindVersionNotAvailable:
		if len(kerr.AvailableVersions) > 0 {
			return fmt.Sprintf("available versions: %s", strings.Join(kerr.AvailableVersions, ", "))
		}
		return "run `kopi cache refresh` to update the available package list"
	case kopierr.KindAlreadyExists:
		return "pass --force to reinstall"
	case kopierr.KindDiskSpace:
		return "free up disk space or lower storage.min_disk_space_mb in config.toml"
	case kopierr.KindKopiNotFound:
		return "install kopi's main binary alongside kopi-shim or on PATH"
	case kopierr.KindPermissionDenied:
		return "check file permissions under your kopi home"
	case kopierr.KindLockingTimeout:
		return fmt.Sprintf("another kopi process is using %s; retry once it finishes", kerr.Scope)
	case kopierr.KindNetwork, kopierr.KindHTTP, kopierr.KindMetadataFetch:
		return "check your network connection and HTTP_PROXY/HTTPS_PROXY settings"
	case kopierr.KindInvalidConfig:
		return "check config.toml for syntax errors, or delete it to fall back to defaults"
	default:
		return ""
	}
}
