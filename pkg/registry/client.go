package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
)

// LicenseInfo is the license-relevant metadata a registry reports for one release.
type LicenseInfo struct {
	Candidate   dependencies.LicenseCandidate
	Description string
}

// LicenseSource fetches license metadata for one package version.
type LicenseSource interface {
	FetchLicense(ctx context.Context, name, version string) (*LicenseInfo, error)
}

// Cache entry
type cacheEntry struct {
	info   *LicenseInfo
	expiry time.Time
}

// CachingLicenseSource memoizes successful lookups for ttl.
type CachingLicenseSource struct {
	inner LicenseSource
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// NewCachingLicenseSource wraps inner with an in-memory TTL cache
func NewCachingLicenseSource(inner LicenseSource, ttl time.Duration) *CachingLicenseSource {
	return &CachingLicenseSource{
		inner: inner,
		cache: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *CachingLicenseSource) FetchLicense(ctx context.Context, name, version string) (*LicenseInfo, error) {
	key := fmt.Sprintf("%s@%s", name, version)
	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiry) {
		return entry.info, nil
	}

	info, err := c.inner.FetchLicense(ctx, name, version)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = &cacheEntry{info: info, expiry: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return info, nil
}
