// Package archive extracts downloaded JDK archives (tar.gz/zip) into a
// staging directory, generalizing the teacher's internal/cmd/extract.go
// (extractZip/extractTarGz) to the spec's hardened traversal-defense
// contract: the teacher only checks a HasPrefix on the joined path, which a
// crafted absolute entry name or a `../`-laden symlink can still defeat;
// this package canonicalizes both sides before comparing, per spec §4.5/§8
// invariant 3.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"kopi/internal/kopierr"
	"kopi/internal/logging"
)

var log = logging.NewLogger("archive")

// progressInterval matches spec §4.5's "emit a progress log every 100
// entries".
const progressInterval = 100

// Kind identifies the supported archive formats.
type Kind int

const (
	KindUnknown Kind = iota
	KindTarGz
	KindZip
)

// DetectKind classifies path by extension, per spec §4.5: .tar.gz/.tgz →
// gzip+tar, .zip → zip, anything else is unsupported.
func DetectKind(path string) Kind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(lower, ".zip"):
		return KindZip
	default:
		return KindUnknown
	}
}

// Extract extracts src into dest, creating dest if missing, and returns the
// number of entries written. It performs an integrity precheck (reading the
// first header/entry) before committing to a full extraction so a corrupt
// download surfaces as ValidationError rather than a partially-populated
// directory silently looking complete.
func Extract(src, dest string) (int, error) {
	kind := DetectKind(src)
	if kind == KindUnknown {
		return 0, kopierr.Validation(fmt.Sprintf("unsupported archive format: %s", filepath.Ext(src)))
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, kopierr.IO("failed to create destination directory", err)
	}

	switch kind {
	case KindTarGz:
		return extractTarGz(src, dest)
	default:
		return extractZip(src, dest)
	}
}

// safeJoin implements spec §4.5's extraction contract: reject any entry
// whose normalized path contains `..` or is rooted/absolute, then require
// that the canonicalized destination-joined path still starts with the
// canonicalized destination — closing the gap in the teacher's
// HasPrefix(dest)-only check, which a sibling directory sharing dest's
// prefix (e.g. "/home/u/.kopi/jdks-evil") can slip past.
func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || cleaned == ".." {
		return "", kopierr.Security(fmt.Sprintf("archive entry %q escapes destination via relative path", name))
	}
	if filepath.IsAbs(cleaned) {
		return "", kopierr.Security(fmt.Sprintf("archive entry %q has an absolute path", name))
	}

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return "", kopierr.IO("failed to resolve destination path", err)
	}
	candidate := filepath.Join(destAbs, cleaned)

	destResolved := resolveExisting(destAbs)
	candidateResolved := resolveExisting(filepath.Dir(candidate))
	if !strings.HasPrefix(candidateResolved+string(os.PathSeparator), destResolved+string(os.PathSeparator)) &&
		candidateResolved != destResolved {
		return "", kopierr.Security(fmt.Sprintf("archive entry %q resolves outside destination", name))
	}

	return candidate, nil
}

// resolveExisting follows symlinks for the nearest existing ancestor of
// path, the same "walk up until something exists" trick internal/platform's
// Classify uses, so traversal checks catch a symlinked destination too.
func resolveExisting(path string) string {
	probe := path
	for {
		if resolved, err := filepath.EvalSymlinks(probe); err == nil {
			return resolved
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return path
		}
		probe = parent
	}
}

func extractZip(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, kopierr.Validation(fmt.Sprintf("cannot open zip archive: %v", err))
	}
	defer r.Close()

	if len(r.File) == 0 {
		return 0, kopierr.Validation("zip archive contains no entries")
	}

	count := 0
	for _, f := range r.File {
		if f.Name == "" {
			log.Warnf("skipping zip entry with empty name in %s", src)
			continue
		}

		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return count, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, kopierr.IO("failed to create directory", err)
			}
			continue
		}

		if err := extractZipFile(f, target); err != nil {
			return count, err
		}

		count++
		if count%progressInterval == 0 {
			log.Infof("extracted %d entries from %s", count, filepath.Base(src))
		}
	}
	return count, nil
}

func extractZipFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return kopierr.IO("failed to create parent directory", err)
	}

	rc, err := f.Open()
	if err != nil {
		return kopierr.Validation(fmt.Sprintf("failed to open zip entry %q: %v", f.Name, err))
	}
	defer rc.Close()

	mode := f.Mode()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return kopierr.IO("failed to create extracted file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return kopierr.IO("failed to write extracted file", err)
	}
	return applyUnixMode(target, mode)
}

func extractTarGz(src, dest string) (int, error) {
	file, err := os.Open(src)
	if err != nil {
		return 0, kopierr.IO("failed to open archive", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return 0, kopierr.Validation(fmt.Sprintf("not a valid gzip stream: %v", err))
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	// Integrity precheck per spec §4.5: the first header read below also
	// doubles as entry zero of the real extraction loop, so a malformed
	// archive fails fast without any partial directory having been created.
	header, err := tr.Next()
	if err != nil {
		if err == io.EOF {
			return 0, kopierr.Validation("tar archive contains no entries")
		}
		return 0, kopierr.Validation(fmt.Sprintf("cannot read tar header: %v", err))
	}

	count := 0
	for {
		if err := writeTarEntry(tr, header, dest); err != nil {
			return count, err
		}
		if header.Typeflag == tar.TypeReg {
			count++
			if count%progressInterval == 0 {
				log.Infof("extracted %d entries from %s", count, filepath.Base(src))
			}
		}

		header, err = tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, kopierr.Validation(fmt.Sprintf("cannot read tar header: %v", err))
		}
	}
	return count, nil
}

func writeTarEntry(tr *tar.Reader, header *tar.Header, dest string) error {
	target, err := safeJoin(dest, header.Name)
	if err != nil {
		return err
	}

	if header.Typeflag == tar.TypeDir {
		return os.MkdirAll(target, 0o755)
	}
	if header.Typeflag != tar.TypeReg {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return kopierr.IO("failed to create parent directory", err)
	}

	mode := header.FileInfo().Mode()
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return kopierr.IO("failed to create extracted file", err)
	}
	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return kopierr.IO("failed to write extracted file", err)
	}
	out.Close()

	if err := applyUnixMode(target, mode); err != nil {
		return err
	}
	return os.Chtimes(target, header.ModTime, header.ModTime)
}
