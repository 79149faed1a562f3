package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the package or version is unknown to the registry
	ErrNotFound = errors.New("package not found")
)

// NetworkError indicates a transport failure or unexpected status from a registry
type NetworkError struct {
	Source     string // API source (e.g., "pypi", "osv")
	URL        string // URL that failed
	StatusCode int    // HTTP status, zero for transport errors
	Wrapped    error  // Underlying error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d for %s", e.Source, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("network error fetching from %s (%s): %v", e.Source, e.URL, e.Wrapped)
}

func (e *NetworkError) Unwrap() error {
	return e.Wrapped
}

// Retryable reports whether another attempt may succeed.
func (e *NetworkError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// ParseError indicates a response parsing/decoding error
type ParseError struct {
	Source  string // API source
	Message string // What failed to parse
	Wrapped error  // Underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response from %s: %v", e.Message, e.Source, e.Wrapped)
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}
