package config

import (
	"errors"

	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// DefaultFormat is used when neither the command line nor the config names one.
const DefaultFormat = "json"

// Flags carries the command-line values relevant to merging.
type Flags struct {
	Format            string
	FormatSet         bool
	Exclude           []string
	CheckCVE          bool
	SeverityThreshold string
	CVSSThreshold     *float64
	IgnoreCVEs        []vulnerabilities.IgnoreEntry
}

// Settings is the effective configuration for one run.
type Settings struct {
	Format            string
	ExcludePatterns   []string
	CheckCVE          bool
	SeverityThreshold string
	CVSSThreshold     *float64
	IgnoreFromConfig  []vulnerabilities.IgnoreEntry
	IgnoreFromCLI     []vulnerabilities.IgnoreEntry
	Warnings          []string
}

// Merge combines flags with file. The command line wins for scalars;
// exclude patterns are concatenated CLI first and deduplicated; check_cve is
// enabled by either source. A threshold given on the command line replaces
// both config thresholds.
func Merge(flags Flags, file *File) (Settings, error) {
	if file == nil {
		file = &File{}
	}

	s := Settings{
		Format:           DefaultFormat,
		ExcludePatterns:  mergeStrings(flags.Exclude, file.ExcludePackages),
		CheckCVE:         flags.CheckCVE || (file.CheckCVE != nil && *file.CheckCVE),
		IgnoreFromConfig: file.IgnoreCVEs,
		IgnoreFromCLI:    flags.IgnoreCVEs,
	}

	switch {
	case flags.FormatSet:
		s.Format = flags.Format
	case file.Format != "":
		s.Format = file.Format
	case flags.Format != "":
		s.Format = flags.Format
	}

	if flags.SeverityThreshold != "" || flags.CVSSThreshold != nil {
		s.SeverityThreshold = flags.SeverityThreshold
		s.CVSSThreshold = flags.CVSSThreshold
	} else {
		if file.SeverityThreshold != "" && file.CVSSThreshold != nil {
			return Settings{}, &ConfigError{Err: errors.New("severity_threshold and cvss_threshold are mutually exclusive")}
		}
		s.SeverityThreshold = file.SeverityThreshold
		s.CVSSThreshold = file.CVSSThreshold
		if !s.CheckCVE && (s.SeverityThreshold != "" || s.CVSSThreshold != nil) {
			s.Warnings = append(s.Warnings, "configured vulnerability threshold is ignored because CVE checking is disabled")
			s.SeverityThreshold = ""
			s.CVSSThreshold = nil
		}
	}

	return s, nil
}

// Threshold converts the merged threshold settings.
func (s Settings) Threshold() (vulnerabilities.ThresholdConfig, error) {
	switch {
	case s.SeverityThreshold != "" && s.CVSSThreshold != nil:
		return vulnerabilities.ThresholdConfig{}, errors.New("severity and CVSS thresholds are mutually exclusive")
	case s.SeverityThreshold != "":
		level, err := vulnerabilities.ParseThresholdLevel(s.SeverityThreshold)
		if err != nil {
			return vulnerabilities.ThresholdConfig{}, err
		}
		return vulnerabilities.SeverityThreshold(level)
	case s.CVSSThreshold != nil:
		return vulnerabilities.CVSSThreshold(*s.CVSSThreshold)
	default:
		return vulnerabilities.NoThreshold(), nil
	}
}

func mergeStrings(first, second []string) []string {
	seen := make(map[string]bool, len(first)+len(second))
	out := make([]string, 0, len(first)+len(second))
	for _, list := range [][]string{first, second} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
