package dependencies

import (
	"fmt"
)

// RawPackage is one lockfile record before validation.
type RawPackage struct {
	Name         string
	Version      string
	Dependencies []string
}

// ValidationError reports a lockfile record that could not be turned into a Package.
type ValidationError struct {
	Index int
	Name  string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("lockfile package #%d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("lockfile package %q: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DanglingReferenceWarning reports a dependency edge whose target is not a
// known package. From is empty when the edge comes from the project itself.
type DanglingReferenceWarning struct {
	From    string
	Missing string
}

func (w DanglingReferenceWarning) String() string {
	if w.From == "" {
		return fmt.Sprintf("direct dependency %q is not present in the lockfile", w.Missing)
	}
	return fmt.Sprintf("package %q depends on %q which is not present in the lockfile", w.From, w.Missing)
}

// DuplicatePackageWarning reports a second lockfile record for an already known name.
type DuplicatePackageWarning struct {
	Name    string
	Kept    string
	Skipped string
}

func (w DuplicatePackageWarning) String() string {
	return fmt.Sprintf("package %q appears more than once; keeping version %s, skipping %s", w.Name, w.Kept, w.Skipped)
}

// Registry is a flat table of packages keyed by name, preserving lockfile order.
type Registry struct {
	order      []PackageName
	packages   map[PackageName]Package
	direct     []PackageName
	dangling   []DanglingReferenceWarning
	duplicates []DuplicatePackageWarning
}

// NewRegistry validates raw lockfile records and the project's direct
// dependency names. Empty names or versions fail with a ValidationError.
// Unknown dependency targets are kept as no-op edges and reported through Dangling.
func NewRegistry(raw []RawPackage, directNames []string) (*Registry, error) {
	r := &Registry{packages: make(map[PackageName]Package, len(raw))}

	for i, rp := range raw {
		pkg, err := NewPackage(rp.Name, rp.Version, rp.Dependencies)
		if err != nil {
			return nil, &ValidationError{Index: i, Name: rp.Name, Err: err}
		}
		if existing, ok := r.packages[pkg.Name]; ok {
			r.duplicates = append(r.duplicates, DuplicatePackageWarning{
				Name:    string(pkg.Name),
				Kept:    string(existing.Version),
				Skipped: string(pkg.Version),
			})
			continue
		}
		r.packages[pkg.Name] = pkg
		r.order = append(r.order, pkg.Name)
	}

	seen := make(map[PackageName]bool, len(directNames))
	for _, raw := range directNames {
		name, err := NewPackageName(raw)
		if err != nil {
			return nil, &ValidationError{Index: -1, Name: "direct dependency", Err: err}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := r.packages[name]; !ok {
			r.dangling = append(r.dangling, DanglingReferenceWarning{Missing: raw})
			continue
		}
		r.direct = append(r.direct, name)
	}

	for _, name := range r.order {
		reported := make(map[string]bool)
		for _, dep := range r.packages[name].deps {
			if _, ok := r.packages[PackageName(dep)]; ok || reported[dep] {
				continue
			}
			reported[dep] = true
			r.dangling = append(r.dangling, DanglingReferenceWarning{From: string(name), Missing: dep})
		}
	}

	return r, nil
}

// Len returns the number of packages.
func (r *Registry) Len() int { return len(r.order) }

// Get returns the package with the given name.
func (r *Registry) Get(name PackageName) (Package, bool) {
	p, ok := r.packages[name]
	return p, ok
}

// Has reports whether name is a known package.
func (r *Registry) Has(name string) bool {
	_, ok := r.packages[PackageName(name)]
	return ok
}

// Packages returns all packages in lockfile order.
func (r *Registry) Packages() []Package {
	out := make([]Package, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.packages[name])
	}
	return out
}

// DirectNames returns the project's direct dependencies in declaration order.
func (r *Registry) DirectNames() []PackageName {
	return append([]PackageName(nil), r.direct...)
}

// Dangling returns the dangling reference warnings collected during construction.
func (r *Registry) Dangling() []DanglingReferenceWarning {
	return append([]DanglingReferenceWarning(nil), r.dangling...)
}

// Duplicates returns the duplicate package warnings collected during construction.
func (r *Registry) Duplicates() []DuplicatePackageWarning {
	return append([]DuplicatePackageWarning(nil), r.duplicates...)
}

// Without returns a registry lacking the named packages. Edges pointing at
// removed packages are dropped from the remaining packages, and removed names
// leave the direct set.
func (r *Registry) Without(excluded map[PackageName]bool) *Registry {
	out := &Registry{packages: make(map[PackageName]Package, len(r.order))}
	for _, name := range r.order {
		if excluded[name] {
			continue
		}
		pkg := r.packages[name]
		kept := make([]string, 0, len(pkg.deps))
		for _, dep := range pkg.deps {
			if !excluded[PackageName(dep)] {
				kept = append(kept, dep)
			}
		}
		pkg.deps = kept
		out.packages[name] = pkg
		out.order = append(out.order, name)
	}
	for _, name := range r.direct {
		if !excluded[name] {
			out.direct = append(out.direct, name)
		}
	}
	return out
}
