// Package buildinfo exposes version information stamped into the binary.
package buildinfo

import "runtime/debug"

// BinaryVersion is stamped with -ldflags "-X github.com/fulmenhq/pysbom/pkg/buildinfo.BinaryVersion=...".
var BinaryVersion = "dev"

// ModuleVersion returns the main module version recorded by the toolchain, or "".
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return ""
}

// Version is the version reported to users and written into SBOM tool
// metadata: the stamped binary version, else the module version, else "dev".
func Version() string {
	if BinaryVersion != "" && BinaryVersion != "dev" {
		return BinaryVersion
	}
	if v := ModuleVersion(); v != "" {
		return v
	}
	return "dev"
}
