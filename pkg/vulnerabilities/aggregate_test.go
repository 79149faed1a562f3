package vulnerabilities

import (
	"reflect"
	"testing"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
)

func mustPackage(t *testing.T, name string) dependencies.Package {
	t.Helper()
	p, err := dependencies.NewPackage(name, "1.0.0", nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAggregate_SeverityThreshold(t *testing.T) {
	th, err := SeverityThreshold(SeverityHigh)
	if err != nil {
		t.Fatal(err)
	}
	pkg := mustPackage(t, "jinja2")
	res := Aggregate(AggregateInput{
		Packages: []dependencies.Package{pkg},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{
			"jinja2": {
				{ID: "A", Severity: SeverityMedium},
				{ID: "B", Severity: SeverityCritical},
			},
		},
		Threshold: th,
	})

	if len(res.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(res.Findings))
	}
	if res.Findings[0].AboveThreshold {
		t.Error("A (medium) must not be above a high threshold")
	}
	if !res.Findings[1].AboveThreshold {
		t.Error("B (critical) must be above a high threshold")
	}
	if !res.AnyAboveThreshold {
		t.Error("AnyAboveThreshold should be true")
	}
}

func TestAggregate_CVSSThreshold(t *testing.T) {
	th, err := CVSSThreshold(7.0)
	if err != nil {
		t.Fatal(err)
	}
	res := Aggregate(AggregateInput{
		Packages: []dependencies.Package{mustPackage(t, "urllib3")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{
			"urllib3": {
				{ID: "low", CVSS: Score(6.9)},
				{ID: "edge", CVSS: Score(7.0)},
				{ID: "none", Severity: SeverityCritical},
			},
		},
		Threshold: th,
	})

	got := map[string]bool{}
	for _, f := range res.Findings {
		got[f.Vulnerability.ID] = f.AboveThreshold
	}
	want := map[string]bool{"low": false, "edge": true, "none": false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("above = %v, want %v", got, want)
	}
	if !res.AnyAboveThreshold {
		t.Error("AnyAboveThreshold should be true")
	}
}

func TestAggregate_NoThresholdEverythingAbove(t *testing.T) {
	res := Aggregate(AggregateInput{
		Packages: []dependencies.Package{mustPackage(t, "pkg")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{
			"pkg": {{ID: "X"}},
		},
		Threshold: NoThreshold(),
	})
	if len(res.Findings) != 1 || !res.Findings[0].AboveThreshold || !res.AnyAboveThreshold {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Findings[0].Severity != SeverityUnknown {
		t.Errorf("severity = %s, want unknown", res.Findings[0].Severity)
	}
}

func TestAggregate_UnknownSeverityNeverAboveSeverityThreshold(t *testing.T) {
	th, _ := SeverityThreshold(SeverityLow)
	res := Aggregate(AggregateInput{
		Packages:        []dependencies.Package{mustPackage(t, "pkg")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{"pkg": {{ID: "X"}, {ID: "Y", CVSS: Score(0.0)}}},
		Threshold:       th,
	})
	for _, f := range res.Findings {
		if f.AboveThreshold {
			t.Errorf("%s must not be above threshold", f.Vulnerability.ID)
		}
	}
	if res.AnyAboveThreshold {
		t.Error("AnyAboveThreshold should be false")
	}
}

func TestAggregate_IgnoreMerge(t *testing.T) {
	res := Aggregate(AggregateInput{
		Packages: []dependencies.Package{mustPackage(t, "pkg")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{
			"pkg": {{ID: "CVE-1"}, {ID: "CVE-2"}, {ID: "CVE-3"}},
		},
		IgnoreFromConfig: []IgnoreEntry{{ID: "CVE-1", Reason: "x"}},
		IgnoreFromCLI:    []IgnoreEntry{{ID: "CVE-1", Reason: "y"}, {ID: "CVE-2"}},
		Threshold:        NoThreshold(),
	})

	wantIgnores := []IgnoreEntry{{ID: "CVE-1", Reason: "y"}, {ID: "CVE-2"}}
	if !reflect.DeepEqual(res.Ignores, wantIgnores) {
		t.Errorf("Ignores = %+v, want %+v", res.Ignores, wantIgnores)
	}
	if len(res.Findings) != 1 || res.Findings[0].Vulnerability.ID != "CVE-3" {
		t.Errorf("Findings = %+v, want only CVE-3", res.Findings)
	}
	if len(res.Suppressed) != 2 || res.Suppressed[0].Reason != "y" {
		t.Errorf("Suppressed = %+v", res.Suppressed)
	}
}

func TestAggregate_IgnoreMatchesAliases(t *testing.T) {
	res := Aggregate(AggregateInput{
		Packages: []dependencies.Package{mustPackage(t, "pyyaml")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{
			"pyyaml": {
				{ID: "GHSA-8q59-q68h-6hv4", Aliases: []string{"CVE-2020-14343"}},
				{ID: "GHSA-other", Aliases: []string{"CVE-2099-0001"}},
			},
		},
		IgnoreFromCLI: []IgnoreEntry{{ID: "CVE-2020-14343", Reason: "not reachable"}},
		Threshold:     NoThreshold(),
	})

	if len(res.Suppressed) != 1 {
		t.Fatalf("Suppressed = %+v, want one entry", res.Suppressed)
	}
	if s := res.Suppressed[0]; s.ID != "GHSA-8q59-q68h-6hv4" || s.Reason != "not reachable" {
		t.Errorf("Suppressed[0] = %+v", s)
	}
	if len(res.Findings) != 1 || res.Findings[0].Vulnerability.ID != "GHSA-other" {
		t.Errorf("Findings = %+v, want only GHSA-other", res.Findings)
	}
}

func TestAggregate_DropsUnknownPackagesAndDuplicates(t *testing.T) {
	res := Aggregate(AggregateInput{
		Packages: []dependencies.Package{mustPackage(t, "kept")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{
			"kept":     {{ID: "A"}, {ID: "A"}},
			"excluded": {{ID: "B"}},
		},
		Threshold: NoThreshold(),
	})
	if len(res.Findings) != 1 || res.Findings[0].Package != "kept" {
		t.Errorf("Findings = %+v", res.Findings)
	}
}

func TestAggregate_OutOfRangeCVSSTreatedAsAbsent(t *testing.T) {
	th, _ := CVSSThreshold(5)
	res := Aggregate(AggregateInput{
		Packages:        []dependencies.Package{mustPackage(t, "p")},
		Vulnerabilities: map[dependencies.PackageName][]Vulnerability{"p": {{ID: "A", CVSS: Score(42)}}},
		Threshold:       th,
	})
	if res.Findings[0].AboveThreshold || res.Findings[0].Vulnerability.CVSS != nil {
		t.Errorf("out-of-range score must be dropped: %+v", res.Findings[0])
	}
}

func TestSummarizeAndPartition(t *testing.T) {
	findings := []Finding{
		{Package: "a", Severity: SeverityLow, AboveThreshold: false, Vulnerability: Vulnerability{ID: "1"}},
		{Package: "b", Severity: SeverityCritical, AboveThreshold: true, Vulnerability: Vulnerability{ID: "2"}},
		{Package: "a", Severity: SeverityHigh, AboveThreshold: true, Vulnerability: Vulnerability{ID: "3"}},
	}
	s := Summarize(findings, 4)
	if s.Total != 3 || s.AffectedPackages != 2 || s.Actionable != 2 || s.Informational != 1 || s.Suppressed != 4 {
		t.Errorf("Summary = %+v", s)
	}
	act, info := Partition(findings)
	if len(act) != 2 || len(info) != 1 {
		t.Errorf("Partition = %d/%d", len(act), len(info))
	}
	sorted := SortBySeverity(findings)
	ids := []string{sorted[0].Vulnerability.ID, sorted[1].Vulnerability.ID, sorted[2].Vulnerability.ID}
	if !reflect.DeepEqual(ids, []string{"2", "3", "1"}) {
		t.Errorf("SortBySeverity order = %v", ids)
	}
}
