package foojay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"kopi/internal/kopierr"
)

func TestGetDistributionsUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []Distribution{
				{ID: "temurin", Name: "Eclipse Temurin", APIParameter: "temurin"},
			},
		})
	}))
	defer server.Close()

	source := NewClient().WithBaseURL(server.URL)
	got, err := source.GetDistributions()
	if err != nil {
		t.Fatalf("GetDistributions: %v", err)
	}
	if len(got) != 1 || got[0].APIParameter != "temurin" {
		t.Errorf("unexpected distributions: %+v", got)
	}
}

func TestGetPackagesSendsQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("distribution"); got != "temurin" {
			t.Errorf("distribution query param = %q, want temurin", got)
		}
		if got := r.URL.Query()["archive_type"]; len(got) != 2 {
			t.Errorf("archive_type query params = %v, want 2 entries", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []Package{}})
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL)
	_, err := client.GetPackages(Query{Distribution: "temurin", ArchiveTypes: []string{"tar.gz", "zip"}})
	if err != nil {
		t.Fatalf("GetPackages: %v", err)
	}
}

func TestGetPackageByIDUnwrapsSingleElementArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []PackageInfo{
				{DirectDownloadURI: "https://example.com/jdk.tar.gz", Checksum: "abc", ChecksumType: "sha256"},
			},
		})
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL)
	got, err := client.GetPackageByID("pkg-1")
	if err != nil {
		t.Fatalf("GetPackageByID: %v", err)
	}
	if got.DirectDownloadURI != "https://example.com/jdk.tar.gz" {
		t.Errorf("unexpected package info: %+v", got)
	}
}

func TestGetPackageByIDEmptyResultIsMetadataFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": []PackageInfo{}})
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL)
	_, err := client.GetPackageByID("missing")
	if err == nil {
		t.Fatal("expected an error for an empty result array")
	}
	kerr, ok := kopierr.As(err)
	if !ok || kerr.Kind != kopierr.KindMetadataFetch {
		t.Errorf("expected KindMetadataFetch, got %v", err)
	}
}

func Test400NotReleasedYetMapsToVersionNotAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Given version is not released yet"})
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL)
	_, err := client.GetDistributions()
	if err == nil {
		t.Fatal("expected an error")
	}
	kerr, ok := kopierr.As(err)
	if !ok || kerr.Kind != kopierr.KindVersionNotAvailable {
		t.Errorf("expected KindVersionNotAvailable, got %v (%T)", err, err)
	}
}

func Test429RetriesThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": []Distribution{{ID: "temurin"}}})
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL)
	got, err := client.GetDistributions()
	if err != nil {
		t.Fatalf("GetDistributions after retries: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("unexpected result after retry: %+v", got)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func Test500IsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient().WithBaseURL(server.URL)
	_, err := client.GetDistributions()
	if err == nil {
		t.Fatal("expected an error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("attempts = %d, want 1 (500 should not retry)", attempts)
	}
}
