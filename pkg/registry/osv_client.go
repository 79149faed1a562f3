package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/logger"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

const (
	DefaultOSVBaseURL = "https://api.osv.dev"
	osvEcosystem      = "PyPI"
	osvBatchSize      = 100
)

// OSVClient queries the OSV.dev API for known vulnerabilities
type OSVClient struct {
	http     *resty.Client
	limiter  *rate.Limiter
	Progress ProgressFunc
}

// NewOSVClient creates a client for baseURL allowing at most 10 requests per second.
func NewOSVClient(baseURL string) *OSVClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &OSVClient{
		http:    client,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

type osvQuery struct {
	Package osvPackage `json:"package"`
	Version string     `json:"version"`
}

type osvPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type osvBatchRequest struct {
	Queries []osvQuery `json:"queries"`
}

type osvBatchResponse struct {
	Results []struct {
		Vulns []struct {
			ID string `json:"id"`
		} `json:"vulns"`
	} `json:"results"`
}

type osvRecord struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Details  string   `json:"details"`
	Aliases  []string `json:"aliases"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	Affected []struct {
		Package osvPackage `json:"package"`
		Ranges  []struct {
			Type   string `json:"type"`
			Events []struct {
				Introduced   string `json:"introduced,omitempty"`
				Fixed        string `json:"fixed,omitempty"`
				LastAffected string `json:"last_affected,omitempty"`
			} `json:"events"`
		} `json:"ranges"`
	} `json:"affected"`
	DatabaseSpecific struct {
		Severity string `json:"severity"`
	} `json:"database_specific"`
}

// FetchVulnerabilities returns vulnerabilities keyed by package name.
// Packages whose batch lookup fails get no entry and a warning is logged.
// An id whose detail lookup fails is kept with only its id, so a known hit is
// never dropped. Only context cancellation is returned as an error.
func (c *OSVClient) FetchVulnerabilities(ctx context.Context, packages []dependencies.Package) (map[dependencies.PackageName][]vulnerabilities.Vulnerability, error) {
	idsByPackage := make(map[dependencies.PackageName][]string, len(packages))

	for start := 0; start < len(packages); start += osvBatchSize {
		end := start + osvBatchSize
		if end > len(packages) {
			end = len(packages)
		}
		chunk := packages[start:end]

		resp, err := c.queryBatch(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("OSV batch query failed; affected packages will have no vulnerability data",
				logger.Int("packages", len(chunk)), logger.Err(err))
			continue
		}
		for i, result := range resp.Results {
			if i >= len(chunk) {
				break
			}
			for _, v := range result.Vulns {
				idsByPackage[chunk[i].Name] = append(idsByPackage[chunk[i].Name], v.ID)
			}
		}
	}

	total := 0
	for _, ids := range idsByPackage {
		total += len(ids)
	}

	records := make(map[string]*osvRecord)
	out := make(map[dependencies.PackageName][]vulnerabilities.Vulnerability, len(idsByPackage))
	done := 0
	for _, pkg := range packages {
		for _, id := range idsByPackage[pkg.Name] {
			rec, ok := records[id]
			if !ok {
				fetched, err := c.fetchRecord(ctx, id)
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					logger.Warn("OSV detail lookup failed", logger.String("id", id), logger.Err(err))
				}
				records[id] = fetched
				rec = fetched
			}
			done++
			if c.Progress != nil {
				c.Progress(done, total)
			}
			if rec == nil {
				out[pkg.Name] = append(out[pkg.Name], vulnerabilities.Vulnerability{ID: id})
				continue
			}
			out[pkg.Name] = append(out[pkg.Name], toVulnerability(rec, string(pkg.Name)))
		}
	}
	return out, nil
}

func (c *OSVClient) queryBatch(ctx context.Context, chunk []dependencies.Package) (*osvBatchResponse, error) {
	req := osvBatchRequest{Queries: make([]osvQuery, 0, len(chunk))}
	for _, p := range chunk {
		req.Queries = append(req.Queries, osvQuery{
			Package: osvPackage{Name: string(p.Name), Ecosystem: osvEcosystem},
			Version: string(p.Version),
		})
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var out osvBatchResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post("/v1/querybatch")
	if err != nil {
		return nil, &NetworkError{Source: "osv", URL: "/v1/querybatch", Wrapped: err}
	}
	if resp.IsError() {
		return nil, &NetworkError{Source: "osv", URL: "/v1/querybatch", StatusCode: resp.StatusCode()}
	}
	return &out, nil
}

func (c *OSVClient) fetchRecord(ctx context.Context, id string) (*osvRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	path := "/v1/vulns/" + url.PathEscape(id)
	var rec osvRecord
	resp, err := c.http.R().SetContext(ctx).SetResult(&rec).Get(path)
	if err != nil {
		return nil, &NetworkError{Source: "osv", URL: path, Wrapped: err}
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if resp.IsError() {
		return nil, &NetworkError{Source: "osv", URL: path, StatusCode: resp.StatusCode()}
	}
	if rec.ID == "" {
		return nil, &ParseError{Source: "osv", Message: "vulnerability " + id, Wrapped: errors.New("missing id")}
	}
	return &rec, nil
}

func toVulnerability(rec *osvRecord, packageName string) vulnerabilities.Vulnerability {
	v := vulnerabilities.Vulnerability{
		ID:      rec.ID,
		Summary: rec.Summary,
		Aliases: append([]string(nil), rec.Aliases...),
	}
	if v.Summary == "" {
		v.Summary, _, _ = strings.Cut(strings.TrimSpace(rec.Details), "\n")
	}
	// A scored vector outranks the database label.
	if score, ok := cvssFromRecord(rec); ok {
		v.CVSS = vulnerabilities.Score(score)
		v.Severity = vulnerabilities.SeverityFromCVSS(score)
	} else {
		v.Severity = vulnerabilities.NormalizeSeverity(rec.DatabaseSpecific.Severity)
	}
	v.AffectedRange, v.FixedVersion = affectedRange(rec, packageName)
	return v
}

// cvssFromRecord prefers a v3 vector over v4.
func cvssFromRecord(rec *osvRecord) (float64, bool) {
	for _, want := range []string{"CVSS_V3", "CVSS_V4"} {
		for _, s := range rec.Severity {
			if s.Type != want {
				continue
			}
			score, err := vulnerabilities.ScoreVector(s.Score)
			if err != nil {
				logger.Debug("Unparseable CVSS vector", logger.String("id", rec.ID), logger.Err(err))
				continue
			}
			return score, true
		}
	}
	return 0, false
}

func affectedRange(rec *osvRecord, packageName string) (string, string) {
	want := NormalizeProjectName(packageName)
	var parts []string
	fixed := ""
	for _, a := range rec.Affected {
		if a.Package.Ecosystem != osvEcosystem || NormalizeProjectName(a.Package.Name) != want {
			continue
		}
		for _, r := range a.Ranges {
			var bounds []string
			for _, e := range r.Events {
				switch {
				case e.Introduced != "" && e.Introduced != "0":
					bounds = append(bounds, ">="+e.Introduced)
				case e.Fixed != "":
					bounds = append(bounds, "<"+e.Fixed)
					if fixed == "" {
						fixed = e.Fixed
					}
				case e.LastAffected != "":
					bounds = append(bounds, "<="+e.LastAffected)
				}
			}
			if len(bounds) > 0 {
				parts = append(parts, strings.Join(bounds, ", "))
			}
		}
	}
	return strings.Join(parts, " || "), fixed
}
