package format

import (
	"bytes"
	"fmt"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"github.com/package-url/packageurl-go"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/sbom"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// CycloneDXFormatter renders CycloneDX 1.6 JSON.
type CycloneDXFormatter struct {
	// NewSerial overrides serial number generation, for reproducible output.
	NewSerial func() string
}

func (f *CycloneDXFormatter) Format(model *sbom.ReadModel, meta Metadata) ([]byte, error) {
	bom := f.BuildBOM(model, meta)

	var buf bytes.Buffer
	enc := cdx.NewBOMEncoder(&buf, cdx.BOMFileFormatJSON)
	enc.SetPretty(true)
	if err := enc.EncodeVersion(bom, cdx.SpecVersion1_6); err != nil {
		return nil, fmt.Errorf("encode CycloneDX: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildBOM maps the read model onto a CycloneDX document.
func (f *CycloneDXFormatter) BuildBOM(model *sbom.ReadModel, meta Metadata) *cdx.BOM {
	bom := cdx.NewBOM()
	bom.SpecVersion = cdx.SpecVersion1_6
	if f.NewSerial != nil {
		bom.SerialNumber = f.NewSerial()
	} else {
		bom.SerialNumber = uuid.New().URN()
	}

	ts := meta.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	bom.Metadata = &cdx.Metadata{
		Timestamp: ts.UTC().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{{
				Type:    cdx.ComponentTypeApplication,
				Name:    meta.ToolName,
				Version: meta.ToolVersion,
			}},
		},
	}

	rootRef := ""
	if model.Project.Name != "" {
		rootRef = projectRef(model.Project)
		bom.Metadata.Component = &cdx.Component{
			BOMRef:  rootRef,
			Type:    cdx.ComponentTypeApplication,
			Name:    model.Project.Name,
			Version: model.Project.Version,
		}
	}

	components := make([]cdx.Component, 0, len(model.Components))
	for _, c := range model.Components {
		components = append(components, toComponent(c))
	}
	bom.Components = &components

	bom.Dependencies = buildDependencies(model, rootRef)

	if model.Vulnerabilities != nil && len(model.Vulnerabilities.Findings) > 0 {
		vulns := make([]cdx.Vulnerability, 0, len(model.Vulnerabilities.Findings))
		for _, finding := range model.Vulnerabilities.Findings {
			c, _ := model.Component(finding.Package)
			vulns = append(vulns, toVulnerability(finding, c.Package.BomRef()))
		}
		bom.Vulnerabilities = &vulns
	}

	return bom
}

func projectRef(p sbom.Project) string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "-" + p.Version
}

// PackageURL returns the pkg:pypi purl for a package.
func PackageURL(p dependencies.Package) string {
	return packageurl.NewPackageURL(packageurl.TypePyPi, "", string(p.Name), string(p.Version), nil, "").ToString()
}

func toComponent(c sbom.Component) cdx.Component {
	comp := cdx.Component{
		BOMRef:      c.Package.BomRef(),
		Type:        cdx.ComponentTypeLibrary,
		Name:        string(c.Package.Name),
		Version:     string(c.Package.Version),
		Description: c.Description,
		PackageURL:  PackageURL(c.Package),
	}
	if c.HasLicense {
		comp.Licenses = &cdx.Licenses{licenseChoice(c.License)}
	}
	return comp
}

func licenseChoice(license string) cdx.LicenseChoice {
	if id, ok := dependencies.SPDXID(license); ok {
		return cdx.LicenseChoice{License: &cdx.License{ID: id, URL: dependencies.LicenseURL(id)}}
	}
	if dependencies.IsLicenseExpression(license) {
		return cdx.LicenseChoice{Expression: license}
	}
	return cdx.LicenseChoice{License: &cdx.License{Name: license}}
}

func buildDependencies(model *sbom.ReadModel, rootRef string) *[]cdx.Dependency {
	ref := func(name dependencies.PackageName) string {
		c, _ := model.Component(name)
		return c.Package.BomRef()
	}

	deps := make([]cdx.Dependency, 0, len(model.DirectNames)+1)
	if rootRef != "" {
		direct := make([]string, 0, len(model.DirectNames))
		for _, d := range model.DirectNames {
			direct = append(direct, ref(d))
		}
		deps = append(deps, cdx.Dependency{Ref: rootRef, Dependencies: &direct})
	}
	for _, d := range model.DirectNames {
		bucket := model.TransitiveByDirect[d]
		refs := make([]string, 0, len(bucket))
		for _, name := range bucket {
			refs = append(refs, ref(name))
		}
		deps = append(deps, cdx.Dependency{Ref: ref(d), Dependencies: &refs})
	}
	return &deps
}

func toVulnerability(f vulnerabilities.Finding, bomRef string) cdx.Vulnerability {
	v := f.Vulnerability
	out := cdx.Vulnerability{
		BOMRef:      fmt.Sprintf("%s/%s", v.ID, bomRef),
		ID:          v.ID,
		Source:      &cdx.Source{Name: "OSV", URL: "https://osv.dev/vulnerability/" + v.ID},
		Description: v.Summary,
		Affects:     &[]cdx.Affects{{Ref: bomRef}},
	}

	rating := cdx.VulnerabilityRating{Severity: cdxSeverity(f.Severity)}
	if v.HasCVSS() {
		score := *v.CVSS
		rating.Score = &score
		rating.Method = cdx.ScoringMethodCVSSv3
	} else {
		rating.Method = cdx.ScoringMethodOther
	}
	out.Ratings = &[]cdx.VulnerabilityRating{rating}

	if v.FixedVersion != "" {
		out.Recommendation = "Upgrade to " + v.FixedVersion
	}
	return out
}

func cdxSeverity(s vulnerabilities.Severity) cdx.Severity {
	switch s {
	case vulnerabilities.SeverityCritical:
		return cdx.SeverityCritical
	case vulnerabilities.SeverityHigh:
		return cdx.SeverityHigh
	case vulnerabilities.SeverityMedium:
		return cdx.SeverityMedium
	case vulnerabilities.SeverityLow:
		return cdx.SeverityLow
	case vulnerabilities.SeverityNone:
		return cdx.SeverityNone
	default:
		return cdx.SeverityUnknown
	}
}
