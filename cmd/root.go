/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/pysbom/internal/ops"
	"github.com/fulmenhq/pysbom/pkg/buildinfo"
	"github.com/fulmenhq/pysbom/pkg/exitcode"
	"github.com/fulmenhq/pysbom/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pysbom",
		Short: "Software bill of materials for uv Python projects",
		Long: `Pysbom reads a uv.lock lockfile and produces a software bill of materials:
every resolved package, its license, how it is pulled in, and optionally the
known vulnerabilities affecting it (via OSV).

Examples:
   pysbom                                  # CycloneDX JSON for the current directory
   pysbom -f markdown -o SBOM.md           # Markdown report
   pysbom --check-cve --severity-threshold high
   pysbom -e 'pytest*' -e 'types-*' --dry-run`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeLogger(cmd)
		},
		RunE: runGenerate,
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	addGenerateFlags(cmd.Flags())

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("pysbom {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitcode.New(exitcode.InvalidArguments, err)
	})

	reg := ops.NewRegistry()
	registerSubcommands(cmd, reg)

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != cmd {
			defaultHelp(c, args)
			return
		}
		w := c.OutOrStdout()
		fmt.Fprintf(w, "%s\n\n", c.Long)
		reg.WriteHelp(w)
		fmt.Fprintf(w, "Flags:\n%s\n", c.LocalFlags().FlagUsages())
		fmt.Fprintf(w, "Global Flags:\n%s", c.PersistentFlags().FlagUsages())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(root *cobra.Command, reg *ops.Registry) {
	for _, sub := range []struct {
		group ops.CommandGroup
		cmd   *cobra.Command
	}{
		{ops.GroupReport, newGenerateCommand()},
		{ops.GroupSupport, newVersionCommand()},
	} {
		root.AddCommand(sub.cmd)
		if err := reg.Register(sub.group, sub.cmd, ""); err != nil {
			panic(fmt.Sprintf("failed to register %s command: %v", sub.cmd.Name(), err))
		}
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return exitcode.New(exitcode.InvalidArguments, fmt.Errorf("unexpected argument %q for %q", args[0], cmd.CommandPath()))
	}
	return nil
}

// Execute runs the command tree and returns the process exit code.
// This is called by main.main().
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, newRootCommand(), os.Args[1:])
}

func run(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	code := exitcode.FromError(err)
	switch code {
	case exitcode.Success:
	case exitcode.VulnerabilitiesDetected:
		logger.Warn(err.Error())
	default:
		logger.Error("Command execution failed", logger.Err(err))
	}
	return code
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) error {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	jsonLogs, _ := cmd.Flags().GetBool("log-json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	logLevel, ok := logger.ParseLevel(logLevelStr)
	if !ok {
		return exitcode.New(exitcode.InvalidArguments, fmt.Errorf("invalid log level %q", logLevelStr))
	}
	switch {
	case verbose && quiet:
		return exitcode.New(exitcode.InvalidArguments, fmt.Errorf("--verbose and --quiet are mutually exclusive"))
	case verbose:
		logLevel = logger.DebugLevel
	case quiet:
		logLevel = logger.ErrorLevel
	}

	config := logger.Config{
		Level:     logLevel,
		UseColor:  !noColor && logger.ShouldUseColor(os.Stderr),
		JSON:      jsonLogs,
		Component: "pysbom",
		DryRun:    dryRun,
	}

	if err := logger.Initialize(config); err != nil {
		return exitcode.New(exitcode.ApplicationError, fmt.Errorf("failed to initialize logger: %w", err))
	}
	logger.SetOutput(cmd.ErrOrStderr())
	return nil
}
