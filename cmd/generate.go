/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/pysbom/internal/generate"
	"github.com/fulmenhq/pysbom/pkg/buildinfo"
	"github.com/fulmenhq/pysbom/pkg/config"
	"github.com/fulmenhq/pysbom/pkg/exitcode"
	"github.com/fulmenhq/pysbom/pkg/format"
	"github.com/fulmenhq/pysbom/pkg/lockfile"
	"github.com/fulmenhq/pysbom/pkg/logger"
	"github.com/fulmenhq/pysbom/pkg/pattern"
	"github.com/fulmenhq/pysbom/pkg/registry"
	"github.com/fulmenhq/pysbom/pkg/safeio"
	"github.com/fulmenhq/pysbom/pkg/vulnerabilities"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const licenseCacheTTL = time.Hour

// newUseCase builds the production pipeline. Tests replace it with fakes.
var newUseCase = func(progress generate.ProgressReporter) *generate.UseCase {
	pypi := registry.NewPyPIClient()
	osv := registry.NewOSVClient(registry.DefaultOSVBaseURL)
	osv.Progress = generate.ProgressFunc(progress, "Vulnerability details")

	return &generate.UseCase{
		Lockfile: generate.LockfileReaderFunc(lockfile.ReadProject),
		Licenses: &registry.Enricher{
			Source:   registry.NewCachingLicenseSource(pypi, licenseCacheTTL),
			Progress: generate.ProgressFunc(progress, "License lookups"),
		},
		Vulnerabilities: osv,
		Links:           &registry.LinkVerifier{Checker: pypi},
		Progress:        progress,
	}
}

// now is the SBOM timestamp clock.
var now = time.Now

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an SBOM from uv.lock",
		Long: `Generate a CycloneDX JSON or Markdown SBOM for a uv-managed Python project.

Settings are read from pysbom.config.yml in the project directory (or --config);
command-line flags take precedence. Exit codes: 0 success, 1 vulnerabilities above
threshold, 2 invalid arguments, 3 application error.`,
		Args: noArgs,
		RunE: runGenerate,
	}
	addGenerateFlags(cmd.Flags())
	return cmd
}

func addGenerateFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", config.DefaultFormat, "Output format (json, markdown)")
	fs.StringP("path", "p", ".", "Project directory containing uv.lock")
	fs.StringP("output", "o", "", "Output file (default: stdout)")
	fs.StringArrayP("exclude", "e", nil, "Exclude packages matching a pattern; '*' is a wildcard (repeatable, comma-separated)")
	fs.Bool("check-cve", false, "Check packages for known vulnerabilities via OSV")
	fs.String("severity-threshold", "", "Only fail for vulnerabilities at or above this severity (low, medium, high, critical)")
	fs.Float64("cvss-threshold", 0, "Only fail for vulnerabilities with a CVSS score at or above this value (0.0-10.0)")
	fs.StringArray("ignore-cve", nil, "Ignore a vulnerability: ID[:reason] (repeatable)")
	fs.Bool("dry-run", false, "Validate inputs and report package counts without network access or output")
	fs.Bool("verify-links", false, "Only link packages whose PyPI page exists (markdown)")
	fs.String("config", "", "Config file path (default: pysbom.config.yml in the project directory)")
	fs.Bool("include-dev", true, "Treat development dependency groups as direct dependencies")
}

// splitExcludes expands comma-separated -e values. Empty pieces are kept so
// pattern validation rejects them.
func splitExcludes(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func invalidArgs(err error) error {
	return exitcode.New(exitcode.InvalidArguments, err)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	fs := cmd.Flags()
	formatFlag, _ := fs.GetString("format")
	pathFlag, _ := fs.GetString("path")
	outputPath, _ := fs.GetString("output")
	excludeFlags, _ := fs.GetStringArray("exclude")
	checkCVE, _ := fs.GetBool("check-cve")
	severityFlag, _ := fs.GetString("severity-threshold")
	cvssFlag, _ := fs.GetFloat64("cvss-threshold")
	ignoreFlags, _ := fs.GetStringArray("ignore-cve")
	dryRun, _ := fs.GetBool("dry-run")
	verifyLinks, _ := fs.GetBool("verify-links")
	configFlag, _ := fs.GetString("config")
	includeDev, _ := fs.GetBool("include-dev")

	flags := config.Flags{
		Format:            formatFlag,
		FormatSet:         fs.Changed("format"),
		Exclude:           splitExcludes(excludeFlags),
		CheckCVE:          checkCVE,
		SeverityThreshold: severityFlag,
	}
	if fs.Changed("cvss-threshold") {
		flags.CVSSThreshold = &cvssFlag
	}
	if flags.SeverityThreshold != "" && flags.CVSSThreshold != nil {
		return invalidArgs(errors.New("--severity-threshold and --cvss-threshold are mutually exclusive"))
	}
	if flags.FormatSet {
		if _, err := format.ParseKind(formatFlag); err != nil {
			return invalidArgs(err)
		}
	}
	for _, raw := range ignoreFlags {
		entry := vulnerabilities.ParseIgnoreFlag(raw)
		if entry.ID == "" {
			return invalidArgs(fmt.Errorf("--ignore-cve %q: id must not be empty", raw))
		}
		flags.IgnoreCVEs = append(flags.IgnoreCVEs, entry)
	}

	projectDir, err := safeio.ValidateDirectory(pathFlag)
	if err != nil {
		return invalidArgs(fmt.Errorf("invalid project path: %w", err))
	}

	configPath, err := config.Resolve(projectDir, configFlag)
	if err != nil {
		return invalidArgs(err)
	}
	loaded, err := config.Load(configPath)
	if err != nil {
		return invalidArgs(err)
	}
	if configPath != "" {
		logger.Info("Loaded config", logger.String("path", configPath))
	}
	for _, w := range loaded.Warnings {
		logger.Warn(w)
	}

	settings, err := config.Merge(flags, &loaded.File)
	if err != nil {
		return invalidArgs(err)
	}
	for _, w := range settings.Warnings {
		logger.Warn(w)
	}
	if (flags.SeverityThreshold != "" || flags.CVSSThreshold != nil) && !settings.CheckCVE {
		return invalidArgs(errors.New("--severity-threshold and --cvss-threshold require --check-cve"))
	}

	kind, err := format.ParseKind(settings.Format)
	if err != nil {
		return invalidArgs(err)
	}
	threshold, err := settings.Threshold()
	if err != nil {
		return invalidArgs(err)
	}
	if verifyLinks && kind != format.KindMarkdown {
		logger.Warn("--verify-links only affects markdown output and will be ignored")
		verifyLinks = false
	}

	uc := newUseCase(generate.LogProgress{})
	resp, err := uc.Execute(cmd.Context(), generate.Request{
		ProjectDir:       projectDir,
		IncludeDev:       includeDev,
		ExcludePatterns:  settings.ExcludePatterns,
		CheckCVE:         settings.CheckCVE,
		Threshold:        threshold,
		IgnoreFromConfig: settings.IgnoreFromConfig,
		IgnoreFromCLI:    settings.IgnoreFromCLI,
		VerifyLinks:      verifyLinks,
		DryRun:           dryRun,
	})
	if err != nil {
		return classifyError(err)
	}

	for _, w := range resp.Warnings {
		logger.Warn(w)
	}

	if dryRun {
		logger.Info("Dry run complete; no output written",
			logger.Int("packages", resp.Stats.Locked),
			logger.Int("excluded", resp.Stats.Excluded),
			logger.Int("direct", resp.Stats.Direct),
			logger.Int("transitive", resp.Stats.Transitive))
		return nil
	}

	formatter, err := format.New(kind)
	if err != nil {
		return invalidArgs(err)
	}
	data, err := formatter.Format(resp.Model, format.Metadata{
		ToolName:         "pysbom",
		ToolVersion:      buildinfo.Version(),
		Timestamp:        now(),
		VerifiedPackages: resp.VerifiedPackages,
	})
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := safeio.WriteFilePreservePerms(outputPath, data); err != nil {
			return fmt.Errorf("write output %s: %w", outputPath, err)
		}
		logger.Info("SBOM written", logger.String("path", outputPath), logger.Int("components", len(resp.Model.Components)), logger.Duration("elapsed", resp.Duration))
	} else if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if resp.AnyAboveThreshold {
		actionable := 0
		if resp.Model.Vulnerabilities != nil {
			actionable = resp.Model.Vulnerabilities.Summary.Actionable
		}
		return exitcode.New(exitcode.VulnerabilitiesDetected, fmt.Errorf("found %d vulnerability(ies) above threshold (%s)", actionable, threshold))
	}
	return nil
}

// classifyError maps pipeline failures to exit codes. Input problems are
// invalid arguments; everything else is an application error.
func classifyError(err error) error {
	var patternErr pattern.ValidationError
	var validationErr *generate.ValidationError
	if errors.As(err, &patternErr) || errors.As(err, &validationErr) {
		return invalidArgs(err)
	}
	return exitcode.New(exitcode.ApplicationError, err)
}
