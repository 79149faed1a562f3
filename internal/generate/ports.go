package generate

import (
	"context"
	"fmt"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/lockfile"
	"github.com/fulmenhq/pysbom/pkg/logger"
	"github.com/fulmenhq/pysbom/pkg/registry"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// LockfileReader loads the raw package data of a project directory.
type LockfileReader interface {
	ReadProject(dir string, opts lockfile.Options) (*lockfile.Project, error)
}

// LockfileReaderFunc adapts a function to LockfileReader.
type LockfileReaderFunc func(dir string, opts lockfile.Options) (*lockfile.Project, error)

func (f LockfileReaderFunc) ReadProject(dir string, opts lockfile.Options) (*lockfile.Project, error) {
	return f(dir, opts)
}

// LicenseFetcher returns license metadata for the packages it could resolve.
type LicenseFetcher interface {
	FetchLicenses(ctx context.Context, packages []dependencies.Package) (map[dependencies.PackageName]*registry.LicenseInfo, error)
}

// VulnerabilitySource returns known vulnerabilities keyed by package.
type VulnerabilitySource interface {
	FetchVulnerabilities(ctx context.Context, packages []dependencies.Package) (map[dependencies.PackageName][]vulnerabilities.Vulnerability, error)
}

// LinkChecker reports which package names have a registry page.
type LinkChecker interface {
	VerifyPackages(ctx context.Context, names []string) map[string]bool
}

// ProgressReporter receives stage progress.
type ProgressReporter interface {
	Stage(name string)
	Progress(stage string, current, total int)
}

// LogProgress reports progress through the package logger.
type LogProgress struct{}

func (LogProgress) Stage(name string) {
	logger.Info(name)
}

func (LogProgress) Progress(stage string, current, total int) {
	if current == total || current%25 == 0 {
		logger.Info(fmt.Sprintf("%s: %d/%d", stage, current, total))
		return
	}
	logger.Debug(fmt.Sprintf("%s: %d/%d", stage, current, total))
}

// ProgressFunc binds reporter to stage for clients that take a callback.
func ProgressFunc(reporter ProgressReporter, stage string) registry.ProgressFunc {
	if reporter == nil {
		return nil
	}
	return func(current, total int) {
		reporter.Progress(stage, current, total)
	}
}
