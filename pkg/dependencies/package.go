package dependencies

import (
	"fmt"
	"strings"
)

// InvalidValueError is returned when a package identifier fails validation.
type InvalidValueError struct {
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q: must not be empty", e.Field, e.Value)
}

// PackageName is a validated, non-empty package name.
type PackageName string

// NewPackageName validates raw as a package name.
func NewPackageName(raw string) (PackageName, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &InvalidValueError{Field: "package name", Value: raw}
	}
	return PackageName(raw), nil
}

func (n PackageName) String() string { return string(n) }

// Version is a validated, non-empty package version.
type Version string

// NewVersion validates raw as a version string.
func NewVersion(raw string) (Version, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &InvalidValueError{Field: "version", Value: raw}
	}
	return Version(raw), nil
}

func (v Version) String() string { return string(v) }

// Package is a resolved lockfile entry. Values are not mutated after the
// registry builds them; accessors hand out copies of the dependency list.
type Package struct {
	Name    PackageName
	Version Version
	deps    []string
}

// NewPackage validates name and version and copies the declared dependency names.
func NewPackage(name, version string, dependencyNames []string) (Package, error) {
	n, err := NewPackageName(name)
	if err != nil {
		return Package{}, err
	}
	v, err := NewVersion(version)
	if err != nil {
		return Package{}, err
	}
	return Package{Name: n, Version: v, deps: append([]string(nil), dependencyNames...)}, nil
}

// DeclaredDependencies returns the dependency names in lockfile order.
func (p Package) DeclaredDependencies() []string {
	return append([]string(nil), p.deps...)
}

// BomRef is the stable component reference used by SBOM formatters.
func (p Package) BomRef() string {
	return fmt.Sprintf("%s-%s", p.Name, p.Version)
}

func (p Package) String() string {
	return fmt.Sprintf("%s@%s", p.Name, p.Version)
}
