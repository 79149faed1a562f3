package registry

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// HTTPFetcher abstracts HTTP calls for testability
type HTTPFetcher interface {
	Get(url string) (*http.Response, error)
	Do(req *http.Request) (*http.Response, error)
}

// RealHTTPFetcher wraps http.Client for production use
type RealHTTPFetcher struct {
	client *http.Client
}

// NewRealHTTPFetcher creates a production HTTP fetcher
func NewRealHTTPFetcher(client *http.Client) HTTPFetcher {
	return &RealHTTPFetcher{client: client}
}

// NewHTTPClient returns a client with a timeout and TLS 1.2 minimum.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func (f *RealHTTPFetcher) Get(url string) (*http.Response, error) {
	return f.client.Get(url)
}

func (f *RealHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}

type mockResponse struct {
	statusCode int
	body       string
}

// MockHTTPFetcher simulates HTTP responses for testing. Responses registered
// for the same URL are served in order; the last one repeats.
type MockHTTPFetcher struct {
	mu        sync.Mutex
	responses map[string][]mockResponse
	errors    map[string]error
	calls     map[string]int
}

// NewMockHTTPFetcher creates a mock HTTP fetcher
func NewMockHTTPFetcher() *MockHTTPFetcher {
	return &MockHTTPFetcher{
		responses: make(map[string][]mockResponse),
		errors:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// AddResponse registers a mock response for a URL
func (m *MockHTTPFetcher) AddResponse(urlStr string, statusCode int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[urlStr] = append(m.responses[urlStr], mockResponse{statusCode: statusCode, body: body})
}

// AddError registers a mock error for a URL
func (m *MockHTTPFetcher) AddError(urlStr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[urlStr] = err
}

// Calls returns how many requests were made for urlStr.
func (m *MockHTTPFetcher) Calls(urlStr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[urlStr]
}

func (m *MockHTTPFetcher) Get(urlStr string) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.calls[urlStr]
	m.calls[urlStr] = n + 1

	if err, ok := m.errors[urlStr]; ok {
		return nil, err
	}
	queued, ok := m.responses[urlStr]
	if !ok || len(queued) == 0 {
		// Return 404 for unknown URLs
		return &http.Response{
			StatusCode: 404,
			Body:       io.NopCloser(strings.NewReader("Not Found")),
			Header:     make(http.Header),
		}, nil
	}
	if n >= len(queued) {
		n = len(queued) - 1
	}
	parsedURL, _ := url.Parse(urlStr)
	return &http.Response{
		StatusCode: queued[n].statusCode,
		Body:       io.NopCloser(strings.NewReader(queued[n].body)),
		Header:     make(http.Header),
		Request:    &http.Request{URL: parsedURL},
	}, nil
}

func (m *MockHTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return m.Get(req.URL.String())
}
