package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/logger"
)

const (
	DefaultPyPIBaseURL = "https://pypi.org"
	pypiMaxAttempts    = 3
)

// PyPIClient reads release metadata from the PyPI JSON API
type PyPIClient struct {
	baseURL string
	fetcher HTTPFetcher
	backoff time.Duration
}

// NewPyPIClient creates a PyPIClient with real HTTP for production use
func NewPyPIClient() *PyPIClient {
	return NewPyPIClientWithFetcher(DefaultPyPIBaseURL, NewRealHTTPFetcher(NewHTTPClient(30*time.Second)))
}

// NewPyPIClientWithFetcher creates a PyPIClient with injectable HTTP for testing
func NewPyPIClientWithFetcher(baseURL string, fetcher HTTPFetcher) *PyPIClient {
	return &PyPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		backoff: 100 * time.Millisecond,
	}
}

type pypiRelease struct {
	Info struct {
		Name              string   `json:"name"`
		Version           string   `json:"version"`
		License           *string  `json:"license"`
		LicenseExpression *string  `json:"license_expression"`
		Summary           *string  `json:"summary"`
		Classifiers       []string `json:"classifiers"`
	} `json:"info"`
}

// FetchLicense retrieves license fields for name@version. Transport errors
// and 5xx responses are retried with a linear backoff; a 404 is returned as
// ErrNotFound immediately.
func (c *PyPIClient) FetchLicense(ctx context.Context, name, version string) (*LicenseInfo, error) {
	releaseURL := fmt.Sprintf("%s/pypi/%s/%s/json", c.baseURL, url.PathEscape(name), url.PathEscape(version))

	var lastErr error
	for attempt := 1; attempt <= pypiMaxAttempts; attempt++ {
		info, err := c.fetchOnce(ctx, releaseURL)
		if err == nil {
			return info, nil
		}
		lastErr = err

		var netErr *NetworkError
		if errors.Is(err, ErrNotFound) || !errors.As(err, &netErr) || !netErr.Retryable() {
			return nil, err
		}
		if attempt == pypiMaxAttempts {
			break
		}
		logger.Debug("Retrying PyPI request", logger.String("package", name), logger.Int("attempt", attempt))
		if err := sleepContext(ctx, c.backoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *PyPIClient) fetchOnce(ctx context.Context, releaseURL string) (*LicenseInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build PyPI request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, &NetworkError{Source: "pypi", URL: releaseURL, Wrapped: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", releaseURL, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, &NetworkError{Source: "pypi", URL: releaseURL, StatusCode: resp.StatusCode}
	}

	var release pypiRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, &ParseError{Source: "pypi", Message: "release metadata", Wrapped: err}
	}

	return &LicenseInfo{
		Candidate: dependencies.LicenseCandidate{
			License:           deref(release.Info.License),
			LicenseExpression: deref(release.Info.LicenseExpression),
			Classifiers:       release.Info.Classifiers,
		},
		Description: deref(release.Info.Summary),
	}, nil
}

// ProjectExists reports whether PyPI knows a project named name.
func (c *PyPIClient) ProjectExists(ctx context.Context, name string) (bool, error) {
	projectURL := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, url.PathEscape(NormalizeProjectName(name)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, projectURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.fetcher.Do(req)
	if err != nil {
		return false, &NetworkError{Source: "pypi", URL: projectURL, Wrapped: err}
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

// NormalizeProjectName lowercases name and replaces underscores and dots with hyphens.
func NormalizeProjectName(name string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(strings.ToLower(name))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
