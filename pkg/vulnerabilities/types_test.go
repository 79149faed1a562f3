package vulnerabilities

import (
	"math"
	"testing"
)

func TestNormalizeSeverity(t *testing.T) {
	tests := map[string]Severity{
		"CRITICAL": SeverityCritical,
		"high":     SeverityHigh,
		"MODERATE": SeverityMedium,
		"Medium":   SeverityMedium,
		"low":      SeverityLow,
		"none":     SeverityNone,
		"":         SeverityUnknown,
		"bogus":    SeverityUnknown,
	}
	for in, want := range tests {
		if got := NormalizeSeverity(in); got != want {
			t.Errorf("NormalizeSeverity(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestSeverityFromCVSS(t *testing.T) {
	tests := []struct {
		score float64
		want  Severity
	}{
		{0.0, SeverityNone},
		{0.09, SeverityNone},
		{0.1, SeverityLow},
		{3.9, SeverityLow},
		{3.95, SeverityLow},
		{4.0, SeverityMedium},
		{6.9, SeverityMedium},
		{7.0, SeverityHigh},
		{8.9, SeverityHigh},
		{9.0, SeverityCritical},
		{10.0, SeverityCritical},
	}
	for _, tt := range tests {
		if got := SeverityFromCVSS(tt.score); got != tt.want {
			t.Errorf("SeverityFromCVSS(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSeverityMeetsOrExceeds(t *testing.T) {
	if !SeverityMeetsOrExceeds(SeverityCritical, SeverityHigh) {
		t.Error("critical >= high")
	}
	if !SeverityMeetsOrExceeds(SeverityHigh, SeverityHigh) {
		t.Error("high >= high")
	}
	if SeverityMeetsOrExceeds(SeverityMedium, SeverityHigh) {
		t.Error("medium < high")
	}
	if SeverityMeetsOrExceeds(SeverityUnknown, SeverityLow) {
		t.Error("unknown never meets a threshold")
	}
	if SeverityMeetsOrExceeds(SeverityNone, SeverityLow) {
		t.Error("none is below low")
	}
}

func TestEffectiveSeverity(t *testing.T) {
	if s := (Vulnerability{Severity: SeverityLow, CVSS: Score(9.8)}).EffectiveSeverity(); s != SeverityLow {
		t.Errorf("declared severity must win, got %s", s)
	}
	if s := (Vulnerability{CVSS: Score(9.8)}).EffectiveSeverity(); s != SeverityCritical {
		t.Errorf("derived severity = %s", s)
	}
	if s := (Vulnerability{}).EffectiveSeverity(); s != SeverityUnknown {
		t.Errorf("no data should be unknown, got %s", s)
	}
	if got := (Vulnerability{}).CVSSString(); got != "N/A" {
		t.Errorf("CVSSString() = %q, want N/A", got)
	}
	if got := (Vulnerability{CVSS: Score(7.5)}).CVSSString(); got != "7.5" {
		t.Errorf("CVSSString() = %q, want 7.5", got)
	}
}

func TestThresholdConstructors(t *testing.T) {
	if _, err := SeverityThreshold(SeverityUnknown); err == nil {
		t.Error("unknown level must be rejected")
	}
	if _, err := CVSSThreshold(10.1); err == nil {
		t.Error("score above 10 must be rejected")
	}
	if _, err := CVSSThreshold(-1); err == nil {
		t.Error("negative score must be rejected")
	}
	th, err := CVSSThreshold(7)
	if err != nil || th.Kind() != ThresholdCVSS || th.String() != "cvss >= 7.0" {
		t.Errorf("CVSSThreshold(7) = %v, %v", th, err)
	}
	if lvl, err := ParseThresholdLevel("HIGH"); err != nil || lvl != SeverityHigh {
		t.Errorf("ParseThresholdLevel = %s, %v", lvl, err)
	}
	if _, err := ParseThresholdLevel("none"); err == nil {
		t.Error("none is not a threshold level")
	}
	if SeverityCritical.Title() != "Critical" {
		t.Errorf("Title() = %s", SeverityCritical.Title())
	}
}

func TestMergeIgnoreEntries(t *testing.T) {
	merged := MergeIgnoreEntries(
		[]IgnoreEntry{{ID: "CVE-1", Reason: "x"}, {ID: "CVE-3"}},
		[]IgnoreEntry{{ID: "CVE-1", Reason: "y"}, {ID: "CVE-2"}, {ID: " "}},
	)
	want := []IgnoreEntry{{ID: "CVE-1", Reason: "y"}, {ID: "CVE-2"}, {ID: "CVE-3"}}
	if len(merged) != len(want) {
		t.Fatalf("merged = %+v", merged)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("merged[%d] = %+v, want %+v", i, merged[i], want[i])
		}
	}
}

func TestParseIgnoreFlag(t *testing.T) {
	e := ParseIgnoreFlag("CVE-2024-1:accepted risk: see ticket")
	if e.ID != "CVE-2024-1" || e.Reason != "accepted risk: see ticket" {
		t.Errorf("ParseIgnoreFlag = %+v", e)
	}
	if e := ParseIgnoreFlag("GHSA-xxxx"); e.ID != "GHSA-xxxx" || e.Reason != "" {
		t.Errorf("ParseIgnoreFlag = %+v", e)
	}
}

func TestScoreVector(t *testing.T) {
	score, err := ScoreVector("CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H")
	if err != nil {
		t.Fatalf("ScoreVector failed: %v", err)
	}
	if math.Abs(score-9.8) > 0.01 {
		t.Errorf("score = %v, want 9.8", score)
	}
	if s, err := ScoreVector("5.3"); err != nil || s != 5.3 {
		t.Errorf("numeric score = %v, %v", s, err)
	}
	if _, err := ScoreVector("CVSS:3.1/garbage"); err == nil {
		t.Error("expected parse error")
	}
	if _, err := ScoreVector("11"); err == nil {
		t.Error("expected range error")
	}
}
