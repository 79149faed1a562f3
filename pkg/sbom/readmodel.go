package sbom

import (
	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// Project identifies the project the SBOM describes.
type Project struct {
	Name    string
	Version string
}

// Component is one package with its resolved license.
type Component struct {
	Package     dependencies.Package
	License     string
	HasLicense  bool
	Description string
}

// VulnerabilityReport is present only when vulnerability checking ran.
type VulnerabilityReport struct {
	Findings          []vulnerabilities.Finding
	Suppressed        []vulnerabilities.Suppressed
	Threshold         vulnerabilities.ThresholdConfig
	AnyAboveThreshold bool
	Summary           vulnerabilities.Summary
}

// ReadModel is the formatter-facing view of one SBOM run.
type ReadModel struct {
	Project            Project
	Components         []Component
	DirectNames        []dependencies.PackageName
	TransitiveByDirect map[dependencies.PackageName][]dependencies.PackageName
	Vulnerabilities    *VulnerabilityReport

	index map[dependencies.PackageName]int
}

// Component looks up a component by package name.
func (m *ReadModel) Component(name dependencies.PackageName) (Component, bool) {
	i, ok := m.index[name]
	if !ok {
		return Component{}, false
	}
	return m.Components[i], true
}

// HasTransitive reports whether any direct dependency has a non-empty bucket.
func (m *ReadModel) HasTransitive() bool {
	for _, bucket := range m.TransitiveByDirect {
		if len(bucket) > 0 {
			return true
		}
	}
	return false
}
