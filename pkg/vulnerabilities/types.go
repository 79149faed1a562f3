package vulnerabilities

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Severity string

const (
	SeverityUnknown  Severity = "unknown"
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityOrder = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// NormalizeSeverity maps advisory severity labels onto Severity.
// GitHub advisories use "moderate" for medium.
func NormalizeSeverity(input string) Severity {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "med", "moderate":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "none", "negligible":
		return SeverityNone
	default:
		return SeverityUnknown
	}
}

// ParseThresholdLevel accepts the four actionable levels, case-insensitively.
func ParseThresholdLevel(input string) (Severity, error) {
	s := NormalizeSeverity(input)
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return s, nil
	}
	return "", fmt.Errorf("invalid severity threshold %q: expected low, medium, high or critical", input)
}

// Known reports whether s is a defined tier.
func (s Severity) Known() bool {
	_, ok := severityOrder[s]
	return ok
}

// Rank orders severities; unknown ranks below none.
func (s Severity) Rank() int {
	if r, ok := severityOrder[s]; ok {
		return r
	}
	return -1
}

// Title returns the display form, e.g. "Critical".
func (s Severity) Title() string {
	if s == "" {
		return cases.Title(language.English).String(string(SeverityUnknown))
	}
	return cases.Title(language.English).String(string(s))
}

// SeverityMeetsOrExceeds reports sev >= threshold. An unknown severity never
// meets any threshold.
func SeverityMeetsOrExceeds(sev Severity, threshold Severity) bool {
	if !sev.Known() || !threshold.Known() {
		return false
	}
	return severityOrder[sev] >= severityOrder[threshold]
}

// SeverityFromCVSS derives a tier from a CVSS base score.
func SeverityFromCVSS(score float64) Severity {
	switch {
	case score < 0.1:
		return SeverityNone
	case score < 4.0:
		return SeverityLow
	case score < 7.0:
		return SeverityMedium
	case score < 9.0:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}
