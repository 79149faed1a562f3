package vulnerabilities

import (
	"strings"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
)

// AggregateInput carries everything the aggregator needs. Vulnerabilities for
// packages not listed in Packages are ignored.
type AggregateInput struct {
	Packages         []dependencies.Package
	Vulnerabilities  map[dependencies.PackageName][]Vulnerability
	IgnoreFromConfig []IgnoreEntry
	IgnoreFromCLI    []IgnoreEntry
	Threshold        ThresholdConfig
}

// AggregateResult holds classified findings in package order.
type AggregateResult struct {
	Findings          []Finding
	Suppressed        []Suppressed
	Ignores           []IgnoreEntry
	AnyAboveThreshold bool
}

// Aggregate merges the ignore lists, drops ignored ids (an alias match counts), normalizes severity
// and classifies each remaining vulnerability against the threshold.
// A package reporting the same id twice yields one finding.
func Aggregate(in AggregateInput) AggregateResult {
	ignores := MergeIgnoreEntries(in.IgnoreFromConfig, in.IgnoreFromCLI)
	ignored := make(map[string]IgnoreEntry, len(ignores))
	for _, e := range ignores {
		ignored[e.ID] = e
	}

	result := AggregateResult{Ignores: ignores}
	for _, pkg := range in.Packages {
		seen := map[string]bool{}
		for _, v := range in.Vulnerabilities[pkg.Name] {
			id := strings.TrimSpace(v.ID)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			if e, ok := matchIgnore(ignored, id, v.Aliases); ok {
				result.Suppressed = append(result.Suppressed, Suppressed{Package: pkg.Name, ID: id, Reason: e.Reason})
				continue
			}

			if v.CVSS != nil && !ValidCVSS(*v.CVSS) {
				v.CVSS = nil
			}
			above := in.Threshold.Above(v)
			result.Findings = append(result.Findings, Finding{
				Package:        pkg.Name,
				Version:        pkg.Version,
				Vulnerability:  v,
				Severity:       v.EffectiveSeverity(),
				AboveThreshold: above,
			})
			if above {
				result.AnyAboveThreshold = true
			}
		}
	}
	return result
}

// matchIgnore looks id up first, then each alias in order.
func matchIgnore(ignored map[string]IgnoreEntry, id string, aliases []string) (IgnoreEntry, bool) {
	if e, ok := ignored[id]; ok {
		return e, true
	}
	for _, alias := range aliases {
		if e, ok := ignored[strings.TrimSpace(alias)]; ok {
			return e, true
		}
	}
	return IgnoreEntry{}, false
}
