package sbom

import (
	"fmt"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// InternalConsistencyError signals that the pipeline produced inputs that
// contradict each other. It is a programming error, not a user error.
type InternalConsistencyError struct {
	Detail string
}

func (e *InternalConsistencyError) Error() string {
	return "internal consistency error: " + e.Detail
}

// AssembleInput collects the outputs of the earlier pipeline stages.
// Licenses and Descriptions may omit packages. Vulnerabilities is nil when
// checking was not requested.
type AssembleInput struct {
	Project         Project
	Packages        []dependencies.Package
	Graph           *dependencies.DependencyGraph
	Licenses        map[dependencies.PackageName]string
	Descriptions    map[dependencies.PackageName]string
	Vulnerabilities *vulnerabilities.AggregateResult
	Threshold       vulnerabilities.ThresholdConfig
}

// Assemble builds the read model, verifying that every name referenced by the
// graph or the findings belongs to the package set.
func Assemble(in AssembleInput) (*ReadModel, error) {
	if in.Graph == nil {
		return nil, &InternalConsistencyError{Detail: "dependency graph is missing"}
	}

	m := &ReadModel{
		Project:            in.Project,
		Components:         make([]Component, 0, len(in.Packages)),
		TransitiveByDirect: in.Graph.TransitiveByDirect(),
		DirectNames:        in.Graph.DirectNames(),
		index:              make(map[dependencies.PackageName]int, len(in.Packages)),
	}

	for _, pkg := range in.Packages {
		if _, dup := m.index[pkg.Name]; dup {
			return nil, &InternalConsistencyError{Detail: fmt.Sprintf("package %q listed twice", pkg.Name)}
		}
		license, ok := in.Licenses[pkg.Name]
		m.index[pkg.Name] = len(m.Components)
		m.Components = append(m.Components, Component{
			Package:     pkg,
			License:     license,
			HasLicense:  ok && license != "",
			Description: in.Descriptions[pkg.Name],
		})
	}

	for _, d := range m.DirectNames {
		if _, ok := m.index[d]; !ok {
			return nil, &InternalConsistencyError{Detail: fmt.Sprintf("direct dependency %q is not in the package set", d)}
		}
	}
	for root, bucket := range m.TransitiveByDirect {
		for _, name := range bucket {
			if _, ok := m.index[name]; !ok {
				return nil, &InternalConsistencyError{Detail: fmt.Sprintf("transitive dependency %q of %q is not in the package set", name, root)}
			}
		}
	}

	if in.Vulnerabilities != nil {
		for _, f := range in.Vulnerabilities.Findings {
			if _, ok := m.index[f.Package]; !ok {
				return nil, &InternalConsistencyError{Detail: fmt.Sprintf("finding %s references unknown package %q", f.Vulnerability.ID, f.Package)}
			}
		}
		m.Vulnerabilities = &VulnerabilityReport{
			Findings:          in.Vulnerabilities.Findings,
			Suppressed:        in.Vulnerabilities.Suppressed,
			Threshold:         in.Threshold,
			AnyAboveThreshold: in.Vulnerabilities.AnyAboveThreshold,
			Summary:           vulnerabilities.Summarize(in.Vulnerabilities.Findings, len(in.Vulnerabilities.Suppressed)),
		}
	}

	return m, nil
}
