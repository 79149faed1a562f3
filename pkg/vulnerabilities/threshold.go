package vulnerabilities

import "fmt"

// ThresholdKind selects how findings are classified.
type ThresholdKind int

const (
	ThresholdNone ThresholdKind = iota
	ThresholdSeverity
	ThresholdCVSS
)

// ThresholdConfig holds exactly one active threshold variant.
type ThresholdConfig struct {
	kind  ThresholdKind
	level Severity
	score float64
}

// NoThreshold treats every finding as actionable.
func NoThreshold() ThresholdConfig {
	return ThresholdConfig{kind: ThresholdNone}
}

// SeverityThreshold marks findings at or above level as actionable.
func SeverityThreshold(level Severity) (ThresholdConfig, error) {
	switch level {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return ThresholdConfig{kind: ThresholdSeverity, level: level}, nil
	}
	return ThresholdConfig{}, fmt.Errorf("invalid severity threshold %q", level)
}

// CVSSThreshold marks findings with a score at or above score as actionable.
func CVSSThreshold(score float64) (ThresholdConfig, error) {
	if !ValidCVSS(score) {
		return ThresholdConfig{}, fmt.Errorf("invalid CVSS threshold %.1f: must be between 0.0 and 10.0", score)
	}
	return ThresholdConfig{kind: ThresholdCVSS, score: score}, nil
}

func (t ThresholdConfig) Kind() ThresholdKind { return t.kind }
func (t ThresholdConfig) Level() Severity     { return t.level }
func (t ThresholdConfig) Score() float64      { return t.score }

// Above reports whether v is actionable under t. Findings without the data
// the threshold needs are never above it.
func (t ThresholdConfig) Above(v Vulnerability) bool {
	switch t.kind {
	case ThresholdSeverity:
		return SeverityMeetsOrExceeds(v.EffectiveSeverity(), t.level)
	case ThresholdCVSS:
		return v.HasCVSS() && *v.CVSS >= t.score
	default:
		return true
	}
}

func (t ThresholdConfig) String() string {
	switch t.kind {
	case ThresholdSeverity:
		return fmt.Sprintf("severity >= %s", t.level)
	case ThresholdCVSS:
		return fmt.Sprintf("cvss >= %.1f", t.score)
	default:
		return "none"
	}
}
