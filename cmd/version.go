/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/fulmenhq/pysbom/pkg/buildinfo"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show pysbom version information",
		Args:  noArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("json", false, "Output version information in JSON format")
	cmd.Flags().Bool("extended", false, "Show module and platform information")
	return cmd
}

type versionInfo struct {
	Version       string `json:"version"`
	ModuleVersion string `json:"moduleVersion,omitempty"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	Arch          string `json:"arch"`
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:       buildinfo.Version(),
		ModuleVersion: buildinfo.ModuleVersion(),
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	extended, _ := cmd.Flags().GetBool("extended")
	out := cmd.OutOrStdout()
	info := currentVersion()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "pysbom %s\n", info.Version)
	if extended {
		if info.ModuleVersion != "" {
			fmt.Fprintf(out, "Module: %s\n", info.ModuleVersion)
		}
		fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
		fmt.Fprintf(out, "Platform: %s/%s\n", info.Platform, info.Arch)
	}
	return nil
}
