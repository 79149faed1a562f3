package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/pysbom-config-v1.json
var schemaV1 []byte

// SchemaVersion is the version of the embedded configuration schema.
const SchemaVersion = "1.0.0"

var (
	compileOnce    sync.Once
	compiledSchema *gojsonschema.Schema
	compileErr     error
)

func configSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1))
	})
	return compiledSchema, compileErr
}

// Violation is one schema failure, keyed by the offending field path.
type Violation struct {
	Field       string
	Description string
}

// SchemaError lists every violation found in a configuration document.
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = fmt.Sprintf("  %s: %s", v.Field, v.Description)
	}
	return fmt.Sprintf("configuration validation failed (schema %s):\n%s", SchemaVersion, strings.Join(lines, "\n"))
}

// ValidateDocument validates a decoded YAML document against the embedded
// schema and returns a *SchemaError when it does not conform.
func ValidateDocument(doc map[string]any) error {
	schema, err := configSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, Violation{Field: desc.Field(), Description: desc.Description()})
	}
	sort.SliceStable(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
	return &SchemaError{Violations: violations}
}
