// Package resolver implements kopi's version resolver (L9): the
// deterministic, read-only search that maps the current process to an
// active VersionRequest, consulting the environment, then project files
// ascending from the working directory, then the global default. Grounded
// on original_source/src/config.rs's precedence table and the teacher's
// internal/utils/jdk_utils.go:FindSingleJDKInstallation "no match / one
// match / many matches" branching style, applied here to directory ascent
// instead of fuzzy version matching.
package resolver

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"kopi/internal/kopierr"
	"kopi/internal/paths"
	"kopi/internal/storage"
)

const (
	envVersionVar   = "KOPI_JAVA_VERSION"
	projectFileName = ".kopi-version"
	legacyFileName  = ".java-version"
)

// Resolver resolves the active VersionRequest for the current process. It
// never prompts and never installs — per spec §4.9, that's the caller's
// (L10's) job.
type Resolver struct {
	layout paths.Layout
}

// New builds a Resolver rooted at kopi_home, used only to locate the
// global default version file.
func New(home string) Resolver {
	return Resolver{layout: paths.New(home)}
}

// Resolve implements the three-step precedence search from spec §4.9:
// KOPI_JAVA_VERSION, then project-file ascent from startDir to the
// filesystem root, then the global default file. Returns NoLocalVersion
// with every directory visited when nothing matches.
func (r Resolver) Resolve(startDir string) (storage.VersionRequest, error) {
	if v := os.Getenv(envVersionVar); v != "" {
		return storage.ParseVersionRequest(v)
	}

	req, found, searched, err := r.searchProjectFiles(startDir)
	if found {
		return req, err
	}

	if content, ok := readFirstSpecLine(r.layout.GlobalVersionFile()); ok {
		return storage.ParseVersionRequest(content)
	}

	return storage.VersionRequest{}, kopierr.NoLocalVersion(searched)
}

// searchProjectFiles ascends from startDir to the filesystem root,
// preferring .kopi-version over .java-version at each directory, per
// spec §4.9 and §6. searched accumulates every directory visited so a
// failed resolution can report exactly where it looked. found reports
// whether a project file was located at all, distinct from err, which
// reports whether that file's contents failed to parse.
func (r Resolver) searchProjectFiles(startDir string) (req storage.VersionRequest, found bool, searched []string, err error) {
	dir, absErr := filepath.Abs(startDir)
	if absErr != nil {
		dir = startDir
	}

	for {
		searched = append(searched, dir)

		if content, ok := readFirstSpecLine(filepath.Join(dir, projectFileName)); ok {
			req, err = storage.ParseVersionRequest(content)
			return req, true, searched, err
		}
		if content, ok := readFirstSpecLine(filepath.Join(dir, legacyFileName)); ok {
			req, err = storage.ParseVersionRequest(content)
			return req, true, searched, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return storage.VersionRequest{}, false, searched, nil
}

// readFirstSpecLine reads path and returns its first non-empty,
// non-comment ("#") line, per spec §6's ".kopi-version/.java-version are
// plain text, first non-comment line is a version spec" rule. Returns
// ok=false when the file is missing, unreadable, or has no such line —
// the parser makes no assumption about a trailing newline.
func readFirstSpecLine(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	return "", false
}
