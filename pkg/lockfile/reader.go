// Package lockfile reads uv.lock and pyproject.toml into raw dependency data.
package lockfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
	"github.com/fulmenhq/pysbom/pkg/safeio"
)

const (
	LockfileName  = "uv.lock"
	PyprojectName = "pyproject.toml"
)

// ParseError reports malformed lockfile or pyproject content.
type ParseError struct {
	File   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d, column %d: %v", e.File, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrNoPackages is returned for a lockfile without any [[package]] entry.
var ErrNoPackages = errors.New("no [[package]] entries found")

// Options controls which dependency groups count as direct.
type Options struct {
	IncludeDev bool
}

// Project is the raw data the dependency registry consumes.
type Project struct {
	Name        string
	Version     string
	DirectNames []string
	Packages    []dependencies.RawPackage
}

type uvLock struct {
	Version  int         `toml:"version"`
	Packages []uvPackage `toml:"package"`
}

type uvPackage struct {
	Name                 string                    `toml:"name"`
	Version              string                    `toml:"version"`
	Dependencies         []uvDependency            `toml:"dependencies"`
	OptionalDependencies map[string][]uvDependency `toml:"optional-dependencies"`
	DevDependencies      map[string][]uvDependency `toml:"dev-dependencies"`
}

type uvDependency struct {
	Name string `toml:"name"`
}

type pyproject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
}

// ReadProject loads <dir>/uv.lock and <dir>/pyproject.toml.
func ReadProject(dir string, opts Options) (*Project, error) {
	pyData, err := safeio.ReadFileBounded(filepath.Join(dir, PyprojectName), 0)
	if err != nil {
		return nil, err
	}
	lockData, err := safeio.ReadFileBounded(filepath.Join(dir, LockfileName), 0)
	if err != nil {
		return nil, err
	}

	name, version, err := ParseProjectName(pyData)
	if err != nil {
		return nil, err
	}
	return ParseLockfile(lockData, name, version, opts)
}

// ParseProjectName extracts [project].name and [project].version.
func ParseProjectName(data []byte) (string, string, error) {
	var py pyproject
	if err := toml.Unmarshal(data, &py); err != nil {
		return "", "", newParseError(PyprojectName, err)
	}
	if strings.TrimSpace(py.Project.Name) == "" {
		return "", "", &ParseError{File: PyprojectName, Err: errors.New("missing [project].name")}
	}
	return py.Project.Name, py.Project.Version, nil
}

// ParseLockfile converts uv.lock content into a Project. The package whose
// name equals projectName is the project itself: its dependencies become the
// direct names and it is left out of Packages.
func ParseLockfile(data []byte, projectName, projectVersion string, opts Options) (*Project, error) {
	var lock uvLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, newParseError(LockfileName, err)
	}
	if len(lock.Packages) == 0 {
		return nil, &ParseError{File: LockfileName, Err: ErrNoPackages}
	}

	p := &Project{Name: projectName, Version: projectVersion}
	root := normalizeName(projectName)
	rootSeen := false

	for _, pkg := range lock.Packages {
		if normalizeName(pkg.Name) == root && !rootSeen {
			rootSeen = true
			if pkg.Version != "" {
				p.Version = pkg.Version
			}
			p.DirectNames = appendNames(p.DirectNames, pkg.Dependencies)
			if opts.IncludeDev {
				for _, group := range sortedGroups(pkg.DevDependencies) {
					p.DirectNames = appendNames(p.DirectNames, pkg.DevDependencies[group])
				}
				for _, extra := range sortedGroups(pkg.OptionalDependencies) {
					p.DirectNames = appendNames(p.DirectNames, pkg.OptionalDependencies[extra])
				}
			}
			continue
		}
		p.Packages = append(p.Packages, dependencies.RawPackage{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Dependencies: appendNames(nil, pkg.Dependencies),
		})
	}

	return p, nil
}

func appendNames(dst []string, deps []uvDependency) []string {
	for _, d := range deps {
		dst = append(dst, d.Name)
	}
	return dst
}

func sortedGroups(groups map[string][]uvDependency) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeName applies PEP 503 normalization for comparing project names.
func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(n)
}

func newParseError(file string, err error) error {
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return &ParseError{File: file, Line: row, Column: col, Err: err}
	}
	return &ParseError{File: file, Err: err}
}
