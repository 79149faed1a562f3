package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fulmenhq/pysbom/pkg/dependencies"
)

const (
	// MaxPatternLength is the longest accepted pattern, in characters.
	MaxPatternLength = 255
	// MaxPatterns is the largest accepted batch.
	MaxPatterns = 64
)

const (
	ReasonEmptyPattern     = "empty_pattern"
	ReasonPatternTooLong   = "pattern_too_long"
	ReasonWildcardOnly     = "wildcard_only"
	ReasonInvalidCharacter = "invalid_character"
	ReasonTooManyPatterns  = "too_many_patterns"
)

// ValidationError is implemented by every pattern validation failure.
type ValidationError interface {
	error
	Reason() string
}

// EmptyPatternError rejects a zero-length pattern.
type EmptyPatternError struct{}

func (e *EmptyPatternError) Error() string  { return "exclusion pattern must not be empty" }
func (e *EmptyPatternError) Reason() string { return ReasonEmptyPattern }

// PatternTooLongError rejects a pattern longer than MaxPatternLength characters.
type PatternTooLongError struct {
	Pattern string
	Length  int
}

func (e *PatternTooLongError) Error() string {
	return fmt.Sprintf("exclusion pattern is %d characters long; the maximum is %d", e.Length, MaxPatternLength)
}
func (e *PatternTooLongError) Reason() string { return ReasonPatternTooLong }

// WildcardOnlyError rejects patterns made only of '*', which would exclude everything.
type WildcardOnlyError struct {
	Pattern string
}

func (e *WildcardOnlyError) Error() string {
	return fmt.Sprintf("exclusion pattern %q contains only wildcards", e.Pattern)
}
func (e *WildcardOnlyError) Reason() string { return ReasonWildcardOnly }

// InvalidCharacterError rejects a character outside letters, digits and "-_.[]*".
type InvalidCharacterError struct {
	Pattern   string
	Character rune
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("exclusion pattern %q contains invalid character %q; allowed are letters, digits and -_.[]*", e.Pattern, e.Character)
}
func (e *InvalidCharacterError) Reason() string { return ReasonInvalidCharacter }

// TooManyPatternsError rejects a batch above MaxPatterns.
type TooManyPatternsError struct {
	Count int
}

func (e *TooManyPatternsError) Error() string {
	return fmt.Sprintf("%d exclusion patterns supplied; the maximum is %d", e.Count, MaxPatterns)
}
func (e *TooManyPatternsError) Reason() string { return ReasonTooManyPatterns }

// ExclusionPattern is a validated package-name glob.
type ExclusionPattern struct {
	raw string
	re  *regexp.Regexp
}

func (p ExclusionPattern) String() string { return p.raw }

// Match reports whether name matches the whole pattern, case-sensitively.
func (p ExclusionPattern) Match(name string) bool {
	return p.re.MatchString(name)
}

// ValidatePattern checks one raw pattern and compiles it.
func ValidatePattern(raw string) (ExclusionPattern, error) {
	if raw == "" {
		return ExclusionPattern{}, &EmptyPatternError{}
	}
	if n := utf8.RuneCountInString(raw); n > MaxPatternLength {
		return ExclusionPattern{}, &PatternTooLongError{Pattern: raw, Length: n}
	}
	if strings.Trim(raw, "*") == "" {
		return ExclusionPattern{}, &WildcardOnlyError{Pattern: raw}
	}
	for _, r := range raw {
		if !allowedRune(r) {
			return ExclusionPattern{}, &InvalidCharacterError{Pattern: raw, Character: r}
		}
	}

	expr, err := GlobToRegexp(raw)
	if err != nil {
		return ExclusionPattern{}, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return ExclusionPattern{}, fmt.Errorf("compile exclusion pattern %q: %w", raw, err)
	}
	return ExclusionPattern{raw: raw, re: re}, nil
}

func allowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case '-', '_', '.', '[', ']', '*':
		return true
	}
	return false
}

// ValidatePatterns checks the batch size first and then every pattern in order,
// stopping at the first failure.
func ValidatePatterns(raw []string) ([]ExclusionPattern, error) {
	if len(raw) > MaxPatterns {
		return nil, &TooManyPatternsError{Count: len(raw)}
	}
	out := make([]ExclusionPattern, 0, len(raw))
	for _, r := range raw {
		p, err := ValidatePattern(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ExclusionResult is the outcome of applying patterns to a package set.
type ExclusionResult struct {
	Remaining         []dependencies.Package
	Excluded          []dependencies.Package
	UnmatchedPatterns []string
}

// ExcludedNames returns the excluded packages as a lookup set.
func (r ExclusionResult) ExcludedNames() map[dependencies.PackageName]bool {
	out := make(map[dependencies.PackageName]bool, len(r.Excluded))
	for _, p := range r.Excluded {
		out[p.Name] = true
	}
	return out
}

// Apply removes every package matching at least one pattern. Package and
// pattern order are preserved in the result. UnmatchedPatterns lists the
// patterns that matched nothing.
func Apply(patterns []ExclusionPattern, packages []dependencies.Package) ExclusionResult {
	matched := make([]bool, len(patterns))
	result := ExclusionResult{}

	for _, pkg := range packages {
		excluded := false
		for i, p := range patterns {
			if p.Match(string(pkg.Name)) {
				matched[i] = true
				excluded = true
			}
		}
		if excluded {
			result.Excluded = append(result.Excluded, pkg)
		} else {
			result.Remaining = append(result.Remaining, pkg)
		}
	}

	for i, p := range patterns {
		if !matched[i] {
			result.UnmatchedPatterns = append(result.UnmatchedPatterns, p.raw)
		}
	}
	return result
}

// ValidateAndApply validates raw and applies the resulting patterns.
func ValidateAndApply(raw []string, packages []dependencies.Package) (ExclusionResult, error) {
	patterns, err := ValidatePatterns(raw)
	if err != nil {
		return ExclusionResult{}, err
	}
	return Apply(patterns, packages), nil
}
