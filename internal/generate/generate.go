// Package generate runs the SBOM pipeline for one project directory.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/lockfile"
	"github.com/fulmenhq/pysbom/pkg/logger"
	"github.com/fulmenhq/pysbom/pkg/pattern"
	"github.com/fulmenhq/pysbom/pkg/sbom"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// ErrAllExcluded is returned when the exclusion patterns remove every package.
var ErrAllExcluded = errors.New("all packages were excluded by the exclusion patterns")

// ValidationError reports a request that cannot produce an SBOM.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Request describes one generate run.
type Request struct {
	ProjectDir       string
	IncludeDev       bool
	ExcludePatterns  []string
	CheckCVE         bool
	Threshold        vulnerabilities.ThresholdConfig
	IgnoreFromConfig []vulnerabilities.IgnoreEntry
	IgnoreFromCLI    []vulnerabilities.IgnoreEntry
	VerifyLinks      bool
	DryRun           bool
}

// Stats counts packages at each pipeline stage.
type Stats struct {
	Locked     int
	Excluded   int
	Direct     int
	Transitive int
	Licensed   int
}

// Response is the outcome of a run. Model is nil for dry runs.
type Response struct {
	Model             *sbom.ReadModel
	Warnings          []string
	AnyAboveThreshold bool
	Stats             Stats
	// VerifiedPackages is set when link verification ran.
	VerifiedPackages map[string]bool
	Duration         time.Duration
}

// UseCase wires the pipeline stages to their collaborators. Vulnerabilities
// and Links may be nil when the corresponding feature is never requested.
type UseCase struct {
	Lockfile        LockfileReader
	Licenses        LicenseFetcher
	Vulnerabilities VulnerabilitySource
	Links           LinkChecker
	Progress        ProgressReporter
}

// Execute runs the pipeline: lockfile, registry, exclusions, graph, licenses,
// vulnerabilities when requested, and assembly.
func (u *UseCase) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	progress := u.Progress
	if progress == nil {
		progress = LogProgress{}
	}

	// Patterns are validated before any I/O.
	patterns, err := pattern.ValidatePatterns(req.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if req.CheckCVE && u.Vulnerabilities == nil {
		return nil, errors.New("vulnerability checking requested but no vulnerability source is configured")
	}

	progress.Stage("Reading lockfile")
	project, err := u.Lockfile.ReadProject(req.ProjectDir, lockfile.Options{IncludeDev: req.IncludeDev})
	if err != nil {
		return nil, err
	}

	reg, err := dependencies.NewRegistry(project.Packages, project.DirectNames)
	if err != nil {
		return nil, fmt.Errorf("build package registry: %w", err)
	}

	resp := &Response{}
	resp.Stats.Locked = reg.Len()
	for _, w := range reg.Duplicates() {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	for _, w := range reg.Dangling() {
		resp.Warnings = append(resp.Warnings, w.String())
	}

	exclusion := pattern.Apply(patterns, reg.Packages())
	for _, p := range exclusion.UnmatchedPatterns {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("exclusion pattern %q did not match any package", p))
	}
	if len(exclusion.Excluded) > 0 {
		if len(exclusion.Remaining) == 0 {
			return nil, &ValidationError{Err: ErrAllExcluded}
		}
		reg = reg.Without(exclusion.ExcludedNames())
		resp.Stats.Excluded = len(exclusion.Excluded)
		logger.Info(fmt.Sprintf("Excluded %d package(s)", len(exclusion.Excluded)))
	}

	graph := dependencies.BuildGraph(reg)
	resp.Stats.Direct = len(graph.DirectNames())
	resp.Stats.Transitive = len(graph.TransitiveNames())

	if req.DryRun {
		resp.Duration = time.Since(start)
		return resp, nil
	}

	packages := reg.Packages()

	progress.Stage("Fetching license information")
	infos, err := u.Licenses.FetchLicenses(ctx, packages)
	if err != nil {
		return nil, fmt.Errorf("fetch licenses: %w", err)
	}
	licenses := make(map[dependencies.PackageName]string, len(infos))
	descriptions := make(map[dependencies.PackageName]string, len(infos))
	for name, info := range infos {
		if info == nil {
			continue
		}
		if license, ok := dependencies.ResolveLicense(info.Candidate); ok {
			licenses[name] = license
		}
		if info.Description != "" {
			descriptions[name] = info.Description
		}
	}
	resp.Stats.Licensed = len(licenses)
	if missing := len(packages) - len(infos); missing > 0 {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("license information unavailable for %d package(s)", missing))
	}

	var aggregated *vulnerabilities.AggregateResult
	if req.CheckCVE {
		progress.Stage("Checking vulnerabilities")
		raw, err := u.Vulnerabilities.FetchVulnerabilities(ctx, packages)
		if err != nil {
			return nil, fmt.Errorf("fetch vulnerabilities: %w", err)
		}
		result := vulnerabilities.Aggregate(vulnerabilities.AggregateInput{
			Packages:         packages,
			Vulnerabilities:  raw,
			IgnoreFromConfig: req.IgnoreFromConfig,
			IgnoreFromCLI:    req.IgnoreFromCLI,
			Threshold:        req.Threshold,
		})
		aggregated = &result
		resp.AnyAboveThreshold = result.AnyAboveThreshold
	}

	if req.VerifyLinks && u.Links != nil {
		progress.Stage("Verifying package links")
		names := make([]string, 0, len(packages))
		for _, p := range packages {
			names = append(names, string(p.Name))
		}
		resp.VerifiedPackages = u.Links.VerifyPackages(ctx, names)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	model, err := sbom.Assemble(sbom.AssembleInput{
		Project:         sbom.Project{Name: project.Name, Version: project.Version},
		Packages:        packages,
		Graph:           graph,
		Licenses:        licenses,
		Descriptions:    descriptions,
		Vulnerabilities: aggregated,
		Threshold:       req.Threshold,
	})
	if err != nil {
		return nil, err
	}

	resp.Model = model
	resp.Duration = time.Since(start)
	return resp, nil
}
