package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/pysbom/pkg/safeio"
)

const sampleLock = `version = 1
requires-python = ">=3.12"

[[package]]
name = "demo-app"
version = "0.1.0"
source = { virtual = "." }
dependencies = [
    { name = "requests" },
]

[package.dev-dependencies]
dev = [
    { name = "pytest" },
]

[[package]]
name = "requests"
version = "2.31.0"
source = { registry = "https://pypi.org/simple" }
dependencies = [
    { name = "certifi" },
    { name = "urllib3" },
]

[[package]]
name = "certifi"
version = "2024.2.2"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "urllib3"
version = "2.2.1"
source = { registry = "https://pypi.org/simple" }

[[package]]
name = "pytest"
version = "8.1.1"
source = { registry = "https://pypi.org/simple" }
`

const samplePyproject = `[project]
name = "demo_app"
version = "0.1.0"
dependencies = ["requests>=2.31"]
`

func TestParseLockfile(t *testing.T) {
	p, err := ParseLockfile([]byte(sampleLock), "demo_app", "", Options{})
	require.NoError(t, err)

	assert.Equal(t, "0.1.0", p.Version)
	assert.Equal(t, []string{"requests"}, p.DirectNames)
	require.Len(t, p.Packages, 4)
	assert.Equal(t, "requests", p.Packages[0].Name)
	assert.Equal(t, []string{"certifi", "urllib3"}, p.Packages[0].Dependencies)
	for _, pkg := range p.Packages {
		assert.NotEqual(t, "demo-app", pkg.Name, "project package must not be listed as a component")
	}
}

func TestParseLockfile_IncludeDev(t *testing.T) {
	p, err := ParseLockfile([]byte(sampleLock), "demo-app", "", Options{IncludeDev: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "pytest"}, p.DirectNames)
}

func TestParseLockfile_Errors(t *testing.T) {
	_, err := ParseLockfile([]byte("invalid toml content [[["), "demo", "", Options{})
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
	assert.Equal(t, LockfileName, pe.File)
	assert.Greater(t, pe.Line, 0)

	_, err = ParseLockfile([]byte("version = 1\n"), "demo", "", Options{})
	assert.ErrorIs(t, err, ErrNoPackages)
}

func TestParseProjectName(t *testing.T) {
	name, version, err := ParseProjectName([]byte(samplePyproject))
	require.NoError(t, err)
	assert.Equal(t, "demo_app", name)
	assert.Equal(t, "0.1.0", version)

	_, _, err = ParseProjectName([]byte("[tool.uv]\n"))
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestReadProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PyprojectName), []byte(samplePyproject), 0o644))

	_, err := ReadProject(dir, Options{})
	var fre *safeio.FileReadError
	require.True(t, errors.As(err, &fre), "missing uv.lock should be a FileReadError, got %v", err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, LockfileName), []byte(sampleLock), 0o644))
	p, err := ReadProject(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, "demo_app", p.Name)
	assert.Len(t, p.Packages, 4)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "zope-interface", normalizeName("Zope.Interface"))
	assert.Equal(t, "demo-app", normalizeName("demo_app"))
}
