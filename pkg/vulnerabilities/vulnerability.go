package vulnerabilities

import "fmt"

// Vulnerability is one advisory affecting a package version. Severity is
// SeverityUnknown (or empty) and CVSS nil when the source did not supply them.
// Aliases lists other identifiers for the same advisory (CVE ids for a GHSA).
type Vulnerability struct {
	ID            string
	Aliases       []string
	Summary       string
	Severity      Severity
	CVSS          *float64
	AffectedRange string
	FixedVersion  string
}

// Score returns a pointer to s for use as Vulnerability.CVSS.
func Score(s float64) *float64 {
	return &s
}

// ValidCVSS reports whether score lies in [0, 10].
func ValidCVSS(score float64) bool {
	return score >= 0 && score <= 10
}

// HasCVSS reports whether v carries an in-range score.
func (v Vulnerability) HasCVSS() bool {
	return v.CVSS != nil && ValidCVSS(*v.CVSS)
}

// EffectiveSeverity returns the declared severity, or the tier derived from
// the CVSS score, or SeverityUnknown when neither is available.
func (v Vulnerability) EffectiveSeverity() Severity {
	if v.Severity.Known() {
		return v.Severity
	}
	if v.HasCVSS() {
		return SeverityFromCVSS(*v.CVSS)
	}
	return SeverityUnknown
}

// CVSSString formats the score with one decimal, or "N/A".
func (v Vulnerability) CVSSString() string {
	if !v.HasCVSS() {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v.CVSS)
}
