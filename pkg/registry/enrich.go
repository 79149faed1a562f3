package registry

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/logger"
)

// DefaultConcurrency bounds parallel registry requests.
const DefaultConcurrency = 10

// ProgressFunc is called after each completed unit of work.
type ProgressFunc func(current, total int)

// Enricher fetches per-package metadata concurrently. Individual failures
// leave the package without data; they never fail the whole batch.
type Enricher struct {
	Source      LicenseSource
	Concurrency int
	Progress    ProgressFunc
}

// FetchLicenses returns license metadata keyed by package name. Packages whose
// lookup failed are absent from the map. Only context cancellation is returned
// as an error.
func (e *Enricher) FetchLicenses(ctx context.Context, packages []dependencies.Package) (map[dependencies.PackageName]*LicenseInfo, error) {
	limit := e.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		mu      sync.Mutex
		done    int
		results = make(map[dependencies.PackageName]*LicenseInfo, len(packages))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, pkg := range packages {
		g.Go(func() error {
			info, err := e.Source.FetchLicense(gctx, string(pkg.Name), string(pkg.Version))
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				logger.Debug("License lookup failed", logger.Package(string(pkg.Name), string(pkg.Version)), logger.Err(err))
			} else if info != nil {
				results[pkg.Name] = info
			}
			if e.Progress != nil {
				e.Progress(done, len(packages))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProjectChecker reports whether a registry page exists for a project.
type ProjectChecker interface {
	ProjectExists(ctx context.Context, name string) (bool, error)
}

// LinkVerifier checks which package names have a registry project page.
type LinkVerifier struct {
	Checker     ProjectChecker
	Concurrency int
}

// VerifyPackages returns the subset of names that resolved. Failures count as unverified.
func (v *LinkVerifier) VerifyPackages(ctx context.Context, names []string) map[string]bool {
	limit := v.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var mu sync.Mutex
	verified := make(map[string]bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, name := range names {
		g.Go(func() error {
			ok, err := v.Checker.ProjectExists(gctx, name)
			if err != nil {
				logger.Debug("Link verification failed", logger.Package(name, ""), logger.Err(err))
				return nil
			}
			if ok {
				mu.Lock()
				verified[name] = true
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return verified
}
