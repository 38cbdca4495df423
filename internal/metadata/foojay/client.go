// Package foojay implements kopi's client for the foojay Disco API
// (https://api.foojay.io/disco/v3.0), the primary metadata.Source. Grounded
// on the teacher's internal/providers/adoptium (http.Get + json.Unmarshal
// against a single vendor endpoint) generalized to the v3.0 wrapped
// `{result, message}` envelope and the retry/backoff contract from spec
// §4.7, following original_source/src/api/client.rs's retry_with_index
// structure one-for-one in Go idiom via github.com/cenkalti/backoff/v4 (an
// indirect dependency in the retrieval pack promoted here to direct use,
// since nothing else in the pack needed a retry/backoff library for an
// actual network client).
package foojay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"kopi/internal/kopierr"
	"kopi/internal/logging"
)

var log = logging.NewLogger("foojay")

const (
	defaultBaseURL     = "https://api.foojay.io/disco"
	apiVersion         = "v3.0"
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialBackoff     = 1 * time.Second
)

// Client is the low-level HTTP client for the Disco API: request building,
// the `{result, message}` envelope unwrap, and the retry/backoff policy.
// FoojayMetadataSource builds on top of this with the metadata.Source
// vocabulary.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client against the production Disco API.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
	}
}

// WithBaseURL overrides the API base, used by tests against an
// httptest.Server.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

type envelope struct {
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

// apiErrorBody is the vendor's 400-response shape, per spec §4.7's "400
// bodies are parsed for a vendor error string" rule.
type apiErrorBody struct {
	Message string `json:"message"`
}

// Distribution mirrors the Disco API's /distributions entry.
type Distribution struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	APIParameter          string   `json:"api_parameter"`
	FreeUseInProduction   bool     `json:"free_use_in_production"`
	Synonyms              []string `json:"synonyms"`
	Versions              []string `json:"versions"`
}

// MajorVersion mirrors /major_versions.
type MajorVersion struct {
	MajorVersion  int      `json:"major_version"`
	TermOfSupport string   `json:"term_of_support"`
	Versions      []string `json:"versions"`
}

// Links is the Package.Links sub-object.
type Links struct {
	PkgDownloadRedirect string  `json:"pkg_download_redirect"`
	PkgInfoURI          *string `json:"pkg_info_uri"`
}

// Package mirrors one /packages list entry — incomplete, no download URL or
// checksum (those require PackageInfo via GetPackageByID).
type Package struct {
	ID                    string  `json:"id"`
	ArchiveType           string  `json:"archive_type"`
	Distribution          string  `json:"distribution"`
	MajorVersion          int     `json:"major_version"`
	JavaVersion           string  `json:"java_version"`
	DistributionVersion   string  `json:"distribution_version"`
	DirectlyDownloadable  bool    `json:"directly_downloadable"`
	Filename              string  `json:"filename"`
	Links                 Links   `json:"links"`
	FreeUseInProduction   bool    `json:"free_use_in_production"`
	Size                  uint64  `json:"size"`
	OperatingSystem       string  `json:"operating_system"`
	LibCType              string  `json:"lib_c_type,omitempty"`
	JavaFXBundled         bool    `json:"javafx_bundled"`
	TermOfSupport         string  `json:"term_of_support,omitempty"`
	ReleaseStatus         string  `json:"release_status,omitempty"`
	LatestBuildAvailable  *bool   `json:"latest_build_available,omitempty"`
}

// PackageInfo mirrors /ids/<id>: the complete detail record with the
// download URL and checksum, obtained via GetPackageByID.
type PackageInfo struct {
	Filename          string `json:"filename"`
	DirectDownloadURI string `json:"direct_download_uri"`
	Checksum          string `json:"checksum"`
	ChecksumType      string `json:"checksum_type"`
}

func (c *Client) GetDistributions() ([]Distribution, error) {
	var out []Distribution
	url := fmt.Sprintf("%s/%s/distributions", c.baseURL, apiVersion)
	err := c.getJSON(url, &out)
	return out, err
}

func (c *Client) GetMajorVersions() ([]MajorVersion, error) {
	var out []MajorVersion
	url := fmt.Sprintf("%s/%s/major_versions", c.baseURL, apiVersion)
	err := c.getJSON(url, &out)
	return out, err
}

func (c *Client) GetPackages(query Query) ([]Package, error) {
	var out []Package
	url := fmt.Sprintf("%s/%s/packages", c.baseURL, apiVersion)
	err := c.getJSONWithQuery(url, query.params(), &out)
	return out, err
}

// GetPackageByID fetches /ids/<id>, whose `result` field is a single-element
// array rather than a bare object, per the Disco API's convention for this
// endpoint.
func (c *Client) GetPackageByID(id string) (PackageInfo, error) {
	url := fmt.Sprintf("%s/%s/ids/%s", c.baseURL, apiVersion, id)
	var packages []PackageInfo
	if err := c.getJSON(url, &packages); err != nil {
		return PackageInfo{}, err
	}
	if len(packages) == 0 {
		return PackageInfo{}, kopierr.MetadataFetch(fmt.Sprintf("no package info found for id %q", id))
	}
	return packages[0], nil
}

func (c *Client) getJSON(url string, out any) error {
	return c.getJSONWithQuery(url, nil, out)
}

func (c *Client) getJSONWithQuery(url string, params map[string][]string, out any) error {
	body, err := c.executeWithRetry(url, params)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return kopierr.MetadataFetch(fmt.Sprintf("invalid JSON response from foojay API %s: %v", apiVersion, err))
	}
	if env.Result == nil {
		return kopierr.MetadataFetch(fmt.Sprintf("invalid foojay API %s response: missing 'result' field", apiVersion))
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return kopierr.MetadataFetch(fmt.Sprintf("failed to parse foojay API %s response: %v", apiVersion, err))
	}
	return nil
}

// executeWithRetry sends the request, retrying network errors and 429s for
// at most maxRetries attempts in all, with exponential backoff starting at
// initialBackoff,
// honoring a numeric Retry-After header when present, per spec §4.7.
func (c *Client) executeWithRetry(url string, params map[string][]string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	retrier := backoff.WithMaxRetries(policy, maxRetries-1)

	var body []byte
	var finalErr error

	operation := func() error {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			finalErr = kopierr.MetadataFetch(fmt.Sprintf("failed to build request: %v", err))
			return backoff.Permanent(finalErr)
		}
		req.Header.Set("User-Agent", "kopi-metadata/1.0")
		addQuery(req, params)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			finalErr = kopierr.MetadataFetch(fmt.Sprintf(
				"network error connecting to foojay.io API %s: %v. Please check your internet connection and try again.",
				apiVersion, err))
			return finalErr
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if wait, ok := retryAfterDuration(resp.Header.Get("Retry-After")); ok {
				log.Infof("foojay rate limited, honoring Retry-After of %s", wait)
				time.Sleep(wait)
			}
			finalErr = kopierr.MetadataFetch("too many requests, retrying")
			return finalErr
		}

		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			finalErr = kopierr.MetadataFetch(fmt.Sprintf("failed to read response body: %v", readErr))
			return finalErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			finalErr = classifyStatusError(resp.StatusCode, data)
			return backoff.Permanent(finalErr)
		}

		body = data
		finalErr = nil
		return nil
	}

	if err := backoff.Retry(operation, retrier); err != nil {
		if finalErr != nil {
			return nil, finalErr
		}
		return nil, kopierr.MetadataFetch(err.Error())
	}
	return body, nil
}

func addQuery(req *http.Request, params map[string][]string) {
	if len(params) == 0 {
		return
	}
	q := req.URL.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	req.URL.RawQuery = q.Encode()
}

// retryAfterDuration parses a numeric (seconds) Retry-After header value;
// the HTTP-date form is not honored, matching the original client.
func retryAfterDuration(header string) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// classifyStatusError builds the final non-retryable error message for a
// terminal HTTP status, parsing a 400 body for the vendor's own error
// string and flagging a "not released yet" message as VersionNotAvailable,
// per spec §4.7.
func classifyStatusError(status int, body []byte) error {
	if status == http.StatusBadRequest {
		var errBody apiErrorBody
		if json.Unmarshal(body, &errBody) == nil && errBody.Message != "" {
			if strings.Contains(errBody.Message, "not released yet") {
				return kopierr.VersionNotAvailable(errBody.Message, nil)
			}
			return kopierr.MetadataFetch(fmt.Sprintf("bad request: %s", errBody.Message))
		}
		return kopierr.MetadataFetch(fmt.Sprintf("HTTP error (%d) from foojay.io API %s", status, apiVersion))
	}

	switch {
	case status == http.StatusNotFound:
		return kopierr.MetadataFetch(fmt.Sprintf("the requested resource was not found on foojay.io API %s", apiVersion))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return kopierr.MetadataFetch(fmt.Sprintf("authentication failed for foojay.io API %s", apiVersion))
	case status >= 500:
		return kopierr.MetadataFetch(fmt.Sprintf("server error occurred on foojay.io API %s, please try again later", apiVersion))
	default:
		return kopierr.MetadataFetch(fmt.Sprintf("HTTP error (%d) from foojay.io API %s", status, apiVersion))
	}
}
