// Package format renders an SBOM read model as CycloneDX JSON or Markdown.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/pysbom/pkg/sbom"
)

// Kind names an output format.
type Kind string

const (
	KindJSON     Kind = "json"
	KindMarkdown Kind = "markdown"
)

// ParseKind accepts "json" and "markdown" (also "md"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "cyclonedx":
		return KindJSON, nil
	case "markdown", "md":
		return KindMarkdown, nil
	}
	return "", fmt.Errorf("unsupported format %q: expected json or markdown", s)
}

// Metadata describes the run producing the document.
type Metadata struct {
	ToolName    string
	ToolVersion string
	Timestamp   time.Time
	// VerifiedPackages limits registry links to these names. Nil links every package.
	VerifiedPackages map[string]bool
}

// Formatter serializes a read model.
type Formatter interface {
	Format(model *sbom.ReadModel, meta Metadata) ([]byte, error)
}

// New returns the formatter for kind.
func New(kind Kind) (Formatter, error) {
	switch kind {
	case KindJSON:
		return &CycloneDXFormatter{}, nil
	case KindMarkdown:
		return &MarkdownFormatter{}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", kind)
}
