package format

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"

	"github.com/fulmenhq/pysbom/pkg/sbom"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

//go:embed templates/sbom.md.hbs
var markdownTemplate string

const pypiProjectURL = "https://pypi.org/project/"

// MarkdownFormatter renders a human-readable SBOM report.
type MarkdownFormatter struct{}

type markdownView struct {
	ProjectLine        string
	ComponentTable     string
	DirectTable        string
	TransitiveSections []transitiveSection
	HasVulns           bool
	Vulns              vulnView
}

type transitiveSection struct {
	Parent string
	Table  string
}

type vulnView struct {
	SummaryLine        string
	ActionableLine     string
	ActionableTable    string
	InformationalLine  string
	InformationalTable string
	SuppressedLine     string
}

func (f *MarkdownFormatter) Format(model *sbom.ReadModel, meta Metadata) ([]byte, error) {
	tpl, err := raymond.Parse(markdownTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse markdown template: %w", err)
	}
	out, err := tpl.Exec(buildMarkdownView(model, meta))
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return []byte(out), nil
}

func buildMarkdownView(model *sbom.ReadModel, meta Metadata) markdownView {
	link := linker(meta.VerifiedPackages)
	view := markdownView{}

	if model.Project.Name != "" {
		view.ProjectLine = fmt.Sprintf("**Project:** %s %s", escapeCell(model.Project.Name), escapeCell(model.Project.Version))
		view.ProjectLine = strings.TrimSpace(view.ProjectLine) + "\n"
	}

	view.ComponentTable = componentTable(model.Components, link)

	if len(model.DirectNames) > 0 {
		direct := make([]sbom.Component, 0, len(model.DirectNames))
		for _, name := range model.DirectNames {
			if c, ok := model.Component(name); ok {
				direct = append(direct, c)
			}
		}
		view.DirectTable = componentTable(direct, link)
	}

	if model.HasTransitive() {
		view.TransitiveSections = transitiveSections(model, link)
	}

	if model.Vulnerabilities != nil {
		view.HasVulns = true
		view.Vulns = buildVulnView(model.Vulnerabilities, link)
	}
	return view
}

// transitiveSections emits one section per direct dependency with a
// non-empty bucket, in declaration order.
func transitiveSections(model *sbom.ReadModel, link func(string) string) []transitiveSection {
	var sections []transitiveSection
	for _, parent := range model.DirectNames {
		bucket := model.TransitiveByDirect[parent]
		if len(bucket) == 0 {
			continue
		}
		comps := make([]sbom.Component, 0, len(bucket))
		for _, name := range bucket {
			if c, ok := model.Component(name); ok {
				comps = append(comps, c)
			}
		}
		sections = append(sections, transitiveSection{
			Parent: escapeCell(string(parent)),
			Table:  componentTable(comps, link),
		})
	}
	return sections
}

func buildVulnView(report *sbom.VulnerabilityReport, link func(string) string) vulnView {
	v := vulnView{}
	s := report.Summary
	if s.Total == 0 {
		v.SummaryLine = "No known vulnerabilities found."
	} else {
		v.SummaryLine = fmt.Sprintf("Found %s in %s.",
			plural(s.Total, "vulnerability", "vulnerabilities"),
			plural(s.AffectedPackages, "package", "packages"))
	}

	actionable, informational := vulnerabilities.Partition(vulnerabilities.SortBySeverity(report.Findings))
	if len(actionable) > 0 {
		v.ActionableLine = fmt.Sprintf("Found %s %s",
			plural(len(actionable), "vulnerability", "vulnerabilities"),
			thresholdPhrase(report.Threshold))
		v.ActionableTable = findingTable(actionable, link)
	}
	if len(informational) > 0 {
		v.InformationalLine = fmt.Sprintf("Found %s below threshold",
			plural(len(informational), "vulnerability", "vulnerabilities"))
		v.InformationalTable = findingTable(informational, link)
	}
	if len(report.Suppressed) > 0 {
		v.SuppressedLine = fmt.Sprintf("*%s ignored by configuration.*",
			plural(len(report.Suppressed), "vulnerability was", "vulnerabilities were"))
	}
	return v
}

func thresholdPhrase(t vulnerabilities.ThresholdConfig) string {
	switch t.Kind() {
	case vulnerabilities.ThresholdSeverity:
		return fmt.Sprintf("at or above %s severity", t.Level().Title())
	case vulnerabilities.ThresholdCVSS:
		return fmt.Sprintf("with CVSS at or above %.1f", t.Score())
	default:
		return "requiring attention"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func componentTable(components []sbom.Component, link func(string) string) string {
	rows := make([][]string, 0, len(components))
	for _, c := range components {
		license := "N/A"
		if c.HasLicense {
			license = c.License
		}
		rows = append(rows, []string{
			link(string(c.Package.Name)),
			escapeCell(string(c.Package.Version)),
			escapeCell(license),
			escapeCell(c.Description),
		})
	}
	return renderTable([]string{"Package", "Version", "License", "Description"}, rows)
}

func findingTable(findings []vulnerabilities.Finding, link func(string) string) string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		fixed := f.Vulnerability.FixedVersion
		if fixed == "" {
			fixed = "N/A"
		}
		rows = append(rows, []string{
			link(string(f.Package)),
			escapeCell(string(f.Version)),
			escapeCell(fixed),
			f.Vulnerability.CVSSString(),
			severityLabel(f.Severity),
			escapeCell(f.Vulnerability.ID),
		})
	}
	return renderTable([]string{"Package", "Current Version", "Fixed Version", "CVSS", "Severity", "CVE ID"}, rows)
}

func severityLabel(s vulnerabilities.Severity) string {
	switch s {
	case vulnerabilities.SeverityCritical:
		return "🔴 " + s.Title()
	case vulnerabilities.SeverityHigh:
		return "🟠 " + s.Title()
	case vulnerabilities.SeverityMedium:
		return "🟡 " + s.Title()
	case vulnerabilities.SeverityLow:
		return "🟢 " + s.Title()
	case vulnerabilities.SeverityNone:
		return "⚪ " + s.Title()
	default:
		return "Unknown"
	}
}

// renderTable pads columns to their display width so the raw text lines up.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i, cell := range cells {
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(header)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// PyPIURL returns the project page for name.
func PyPIURL(name string) string {
	return pypiProjectURL + strings.ReplaceAll(strings.ToLower(name), "_", "-") + "/"
}

func linker(verified map[string]bool) func(string) string {
	return func(name string) string {
		if verified != nil && !verified[name] {
			return escapeCell(name)
		}
		return fmt.Sprintf("[%s](%s)", escapeCell(name), PyPIURL(name))
	}
}
