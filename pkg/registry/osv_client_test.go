package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

func newOSVServer(t *testing.T, batchStatus int, detailCalls *int32) *httptest.Server {
	t.Helper()
	detail, err := os.ReadFile("testdata/osv_pyyaml_detail.json")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/querybatch", func(w http.ResponseWriter, r *http.Request) {
		if batchStatus != http.StatusOK {
			w.WriteHeader(batchStatus)
			return
		}
		var req osvBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		type vuln struct {
			ID string `json:"id"`
		}
		type result struct {
			Vulns []vuln `json:"vulns,omitempty"`
		}
		resp := struct {
			Results []result `json:"results"`
		}{}
		for _, q := range req.Queries {
			assert.Equal(t, "PyPI", q.Package.Ecosystem)
			if q.Package.Name == "PyYAML" {
				resp.Results = append(resp.Results, result{Vulns: []vuln{{ID: "GHSA-8q59-q68h-6hv4"}}})
			} else {
				resp.Results = append(resp.Results, result{})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/v1/vulns/GHSA-8q59-q68h-6hv4", func(w http.ResponseWriter, r *http.Request) {
		if detailCalls != nil {
			atomic.AddInt32(detailCalls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(detail)
	})
	return httptest.NewServer(mux)
}

func TestOSVClient_FetchVulnerabilities(t *testing.T) {
	var detailCalls int32
	srv := newOSVServer(t, http.StatusOK, &detailCalls)
	defer srv.Close()

	yaml, _ := dependencies.NewPackage("PyYAML", "5.3.1", nil)
	safe, _ := dependencies.NewPackage("certifi", "2024.2.2", nil)

	got, err := NewOSVClient(srv.URL).FetchVulnerabilities(context.Background(), []dependencies.Package{yaml, safe})
	require.NoError(t, err)

	require.Len(t, got["PyYAML"], 1)
	assert.Empty(t, got["certifi"])

	v := got["PyYAML"][0]
	assert.Equal(t, "GHSA-8q59-q68h-6hv4", v.ID)
	assert.Equal(t, "Improper Input Validation in PyYAML", v.Summary)
	assert.Equal(t, vulnerabilities.SeverityCritical, v.Severity)
	require.NotNil(t, v.CVSS)
	assert.InDelta(t, 9.8, *v.CVSS, 0.01)
	assert.Equal(t, "5.4", v.FixedVersion)
	assert.Equal(t, "<5.4", v.AffectedRange)
	assert.Equal(t, int32(1), atomic.LoadInt32(&detailCalls))
}

func TestOSVClient_BatchFailureIsAbsence(t *testing.T) {
	srv := newOSVServer(t, http.StatusBadRequest, nil)
	defer srv.Close()

	p, _ := dependencies.NewPackage("PyYAML", "5.3.1", nil)
	got, err := NewOSVClient(srv.URL).FetchVulnerabilities(context.Background(), []dependencies.Package{p})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAffectedRangeIgnoresOtherPackages(t *testing.T) {
	rec := &osvRecord{ID: "X"}
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "X",
		"affected": [
			{"package": {"name": "other", "ecosystem": "PyPI"}, "ranges": [{"type": "ECOSYSTEM", "events": [{"introduced": "1.0"}, {"fixed": "9.9"}]}]},
			{"package": {"name": "target_pkg", "ecosystem": "PyPI"}, "ranges": [{"type": "ECOSYSTEM", "events": [{"introduced": "1.0"}, {"fixed": "1.5"}]}]}
		]
	}`), rec))

	rng, fixed := affectedRange(rec, "target-pkg")
	assert.Equal(t, ">=1.0, <1.5", rng)
	assert.Equal(t, "1.5", fixed)
}

func TestCVSSFromRecordPrefersV3(t *testing.T) {
	rec := &osvRecord{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"severity": [
			{"type": "CVSS_V4", "score": "not-a-vector"},
			{"type": "CVSS_V3", "score": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:L/I:N/A:N"}
		]
	}`), rec))
	score, ok := cvssFromRecord(rec)
	require.True(t, ok)
	assert.InDelta(t, 5.3, score, 0.01)
}

func TestToVulnerability_CVSSOverridesDatabaseSeverity(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		severity vulnerabilities.Severity
		hasCVSS  bool
	}{
		{
			name: "vector outranks moderate label",
			record: `{"id": "GHSA-x", "aliases": ["CVE-2024-0001"],
				"severity": [{"type": "CVSS_V3", "score": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}],
				"database_specific": {"severity": "MODERATE"}}`,
			severity: vulnerabilities.SeverityCritical,
			hasCVSS:  true,
		},
		{
			name:     "label used without a vector",
			record:   `{"id": "GHSA-y", "database_specific": {"severity": "HIGH"}}`,
			severity: vulnerabilities.SeverityHigh,
		},
		{
			name:     "neither present",
			record:   `{"id": "GHSA-z"}`,
			severity: vulnerabilities.SeverityUnknown,
		},
	}

	th, err := vulnerabilities.SeverityThreshold(vulnerabilities.SeverityHigh)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &osvRecord{}
			require.NoError(t, json.Unmarshal([]byte(tt.record), rec))

			v := toVulnerability(rec, "pkg")
			assert.Equal(t, tt.severity, v.Severity)
			assert.Equal(t, tt.hasCVSS, v.HasCVSS())
			assert.Equal(t, tt.severity, v.EffectiveSeverity())
			if tt.severity == vulnerabilities.SeverityCritical {
				assert.True(t, th.Above(v), "critical finding must clear a high threshold")
				assert.Equal(t, []string{"CVE-2024-0001"}, v.Aliases)
			}
		})
	}
}

func TestOSVClient_FailedDetailLookupKeepsBareFinding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/querybatch", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"vulns": [{"id": "GHSA-gone"}]}]}`))
	})
	mux.HandleFunc("/v1/vulns/GHSA-gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, _ := dependencies.NewPackage("requests", "2.0.0", nil)
	got, err := NewOSVClient(srv.URL).FetchVulnerabilities(context.Background(), []dependencies.Package{p})
	require.NoError(t, err)

	require.Len(t, got["requests"], 1)
	v := got["requests"][0]
	assert.Equal(t, "GHSA-gone", v.ID)
	assert.False(t, v.HasCVSS())
	assert.Equal(t, vulnerabilities.SeverityUnknown, v.EffectiveSeverity())
}
