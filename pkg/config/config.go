package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/pysbom/pkg/safeio"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
)

// FileName is the config file discovered in the project directory.
const FileName = "pysbom.config.yml"

// EnvPrefix prefixes environment overrides, e.g. PYSBOM_CHECK_CVE.
const EnvPrefix = "PYSBOM"

const maxConfigSize = 1 << 20

var candidateNames = []string{FileName, "pysbom.config.yaml"}

var knownFields = map[string]bool{
	"format":             true,
	"exclude_packages":   true,
	"check_cve":          true,
	"severity_threshold": true,
	"cvss_threshold":     true,
	"ignore_cves":        true,
}

// Scalar keys that may be overridden from the environment.
var envKeys = []string{"format", "check_cve", "severity_threshold", "cvss_threshold"}

// ConfigError reports an unreadable or invalid config file.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid config file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// File holds the values read from a config file and the environment.
// Nil pointers and empty strings mean "not set".
type File struct {
	Format            string                        `mapstructure:"format"`
	ExcludePackages   []string                      `mapstructure:"exclude_packages"`
	CheckCVE          *bool                         `mapstructure:"check_cve"`
	SeverityThreshold string                        `mapstructure:"severity_threshold"`
	CVSSThreshold     *float64                      `mapstructure:"cvss_threshold"`
	IgnoreCVEs        []vulnerabilities.IgnoreEntry `mapstructure:"ignore_cves"`
}

// Loaded is the result of Load.
type Loaded struct {
	Path     string
	File     File
	Warnings []string
}

// Discover returns the config file in dir, or "" when there is none.
func Discover(dir string) string {
	for _, name := range candidateNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// Resolve picks the explicit path when given, otherwise discovers one in dir.
// An explicit path that does not exist is an error.
func Resolve(dir, explicit string) (string, error) {
	if explicit == "" {
		return Discover(dir), nil
	}
	clean := filepath.Clean(explicit)
	if _, err := os.Stat(clean); err != nil {
		return "", &ConfigError{Path: explicit, Err: err}
	}
	return clean, nil
}

// Load reads path (which may be empty) and applies PYSBOM_ environment
// overrides. The file is schema-validated before decoding; unknown top-level
// fields become warnings.
func Load(path string) (*Loaded, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	loaded := &Loaded{Path: path}

	if path != "" {
		data, err := safeio.ReadFileBounded(path, maxConfigSize)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("parse YAML: %w", err)}
		}
		if doc != nil {
			if err := ValidateDocument(doc); err != nil {
				return nil, &ConfigError{Path: path, Err: err}
			}
			loaded.Warnings = unknownFieldWarnings(doc)
		}

		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	if err := v.Unmarshal(&loaded.File); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("error unmarshaling config: %w", err)}
	}

	for i, e := range loaded.File.IgnoreCVEs {
		if strings.TrimSpace(e.ID) == "" {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("ignore_cves[%d].id must not be empty", i)}
		}
	}

	return loaded, nil
}

func unknownFieldWarnings(doc map[string]any) []string {
	var unknown []string
	for key := range doc {
		if !knownFields[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	warnings := make([]string, 0, len(unknown))
	for _, key := range unknown {
		warnings = append(warnings, fmt.Sprintf("unknown config field %q will be ignored", key))
	}
	return warnings
}
