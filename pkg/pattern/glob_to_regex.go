/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package pattern

import (
	"errors"
	"regexp"
	"strings"
)

// GlobToRegexp converts a package-name glob into an anchored regular
// expression. Only '*' is a wildcard and matches any run of characters,
// including none. Every other character matches itself, so brackets and
// dots in package names stay literal.
func GlobToRegexp(glob string) (string, error) {
	if glob == "" {
		return "", ErrEmptyPattern
	}

	var result strings.Builder
	result.WriteByte('^')

	for _, segment := range splitStars(glob) {
		if segment == "*" {
			result.WriteString(".*")
			continue
		}
		result.WriteString(regexp.QuoteMeta(segment))
	}

	result.WriteByte('$')
	return result.String(), nil
}

// splitStars breaks glob into literal runs and single "*" tokens.
// Consecutive stars collapse into one.
func splitStars(glob string) []string {
	var parts []string
	var literal strings.Builder
	prevStar := false
	for _, r := range glob {
		if r == '*' {
			if literal.Len() > 0 {
				parts = append(parts, literal.String())
				literal.Reset()
			}
			if !prevStar {
				parts = append(parts, "*")
			}
			prevStar = true
			continue
		}
		prevStar = false
		literal.WriteRune(r)
	}
	if literal.Len() > 0 {
		parts = append(parts, literal.String())
	}
	return parts
}

// ErrEmptyPattern is returned for a zero-length glob.
var ErrEmptyPattern = errors.New("empty pattern")
