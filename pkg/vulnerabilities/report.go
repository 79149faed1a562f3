package vulnerabilities

import (
	"sort"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
)

// Finding is one vulnerability affecting one package, classified against the
// active threshold.
type Finding struct {
	Package        dependencies.PackageName
	Version        dependencies.Version
	Vulnerability  Vulnerability
	Severity       Severity
	AboveThreshold bool
}

// Suppressed records a vulnerability removed by an ignore entry.
type Suppressed struct {
	Package dependencies.PackageName
	ID      string
	Reason  string
}

// Summary counts findings for report headers.
type Summary struct {
	Total            int
	AffectedPackages int
	Actionable       int
	Informational    int
	Suppressed       int
	Counts           map[Severity]int
}

// Summarize computes counts over findings.
func Summarize(findings []Finding, suppressed int) Summary {
	s := Summary{Counts: map[Severity]int{}, Suppressed: suppressed}
	packages := map[dependencies.PackageName]bool{}
	for _, f := range findings {
		s.Total++
		packages[f.Package] = true
		s.Counts[f.Severity]++
		if f.AboveThreshold {
			s.Actionable++
		} else {
			s.Informational++
		}
	}
	s.AffectedPackages = len(packages)
	return s
}

// Partition splits findings into actionable and informational, preserving order.
func Partition(findings []Finding) (actionable, informational []Finding) {
	for _, f := range findings {
		if f.AboveThreshold {
			actionable = append(actionable, f)
		} else {
			informational = append(informational, f)
		}
	}
	return actionable, informational
}

// SortBySeverity returns a copy ordered by severity descending, then package, then id.
func SortBySeverity(findings []Finding) []Finding {
	out := append([]Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if si != sj {
			return si > sj
		}
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Vulnerability.ID < out[j].Vulnerability.ID
	})
	return out
}
