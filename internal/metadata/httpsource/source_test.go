package httpsource

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kopi/internal/metadata"
	"kopi/internal/platform"
)

func serveIndexAndFiles(t *testing.T, index indexFile, files map[string][]metadata.JdkMetadata) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			json.NewEncoder(w).Encode(index)
		default:
			pkgs, ok := files[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(pkgs)
		}
	}))
}

func TestFetchAllFiltersByCurrentPlatform(t *testing.T) {
	currentArch := string(platform.CurrentArchitecture())
	currentOS := string(platform.CurrentOS())

	index := indexFile{
		Updated: "2026-01-02T03:04:05Z",
		Files: []indexFileEntry{
			{Path: "/temurin/match.json", Distribution: "temurin", Architectures: []string{currentArch}, OperatingSystems: []string{currentOS}},
			{Path: "/temurin/other.json", Distribution: "temurin", Architectures: []string{"some-other-arch"}},
		},
	}
	files := map[string][]metadata.JdkMetadata{
		"/temurin/match.json": {{ID: "match-1", Distribution: "temurin", DownloadURL: "https://x/jdk.tar.gz", Checksum: "abc"}},
		"/temurin/other.json": {{ID: "other-1", Distribution: "temurin"}},
	}
	server := serveIndexAndFiles(t, index, files)
	defer server.Close()

	source := New(server.URL, "")
	var messages []string
	got, err := source.FetchAll(func(msg string) { messages = append(messages, msg) })
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 1 || got[0].ID != "match-1" {
		t.Errorf("expected only the platform-matching entry, got %+v", got)
	}
	if len(messages) == 0 {
		t.Error("expected at least one progress message")
	}
}

func TestFetchDistributionFiltersByName(t *testing.T) {
	currentArch := string(platform.CurrentArchitecture())
	index := indexFile{
		Files: []indexFileEntry{
			{Path: "/temurin.json", Distribution: "temurin", Architectures: []string{currentArch}},
			{Path: "/corretto.json", Distribution: "corretto", Architectures: []string{currentArch}},
		},
	}
	files := map[string][]metadata.JdkMetadata{
		"/temurin.json":  {{ID: "t1", Distribution: "temurin"}},
		"/corretto.json": {{ID: "c1", Distribution: "corretto"}},
	}
	server := serveIndexAndFiles(t, index, files)
	defer server.Close()

	source := New(server.URL, "")
	got, err := source.FetchDistribution("corretto", metadata.NopProgress)
	if err != nil {
		t.Fatalf("FetchDistribution: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("expected only corretto entries, got %+v", got)
	}
}

func TestFetchPackageDetailsIsUnsupported(t *testing.T) {
	source := New("https://example.com", "")
	_, err := source.FetchPackageDetails("pkg-1", metadata.NopProgress)
	if err == nil {
		t.Fatal("expected FetchPackageDetails to be unsupported on the HTTP source")
	}
}

func TestLastUpdatedParsesRFC3339(t *testing.T) {
	index := indexFile{Updated: "2026-03-04T05:06:07Z"}
	server := serveIndexAndFiles(t, index, nil)
	defer server.Close()

	source := New(server.URL, "")
	got, ok := source.LastUpdated()
	if !ok {
		t.Fatal("expected LastUpdated to succeed")
	}
	want := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("LastUpdated = %v, want %v", got, want)
	}
}

func TestWarnIfTokenExpiringHandlesExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	// warnIfTokenExpiring only logs; this test's purpose is to confirm it
	// doesn't panic or error on a structurally valid but expired token.
	warnIfTokenExpiring(signed)
}

func TestWarnIfTokenExpiringToleratesGarbage(t *testing.T) {
	warnIfTokenExpiring("not-a-jwt-at-all")
}
