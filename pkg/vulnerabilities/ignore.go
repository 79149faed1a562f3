package vulnerabilities

import "strings"

// IgnoreEntry suppresses a vulnerability by id. Reason is optional.
type IgnoreEntry struct {
	ID     string `json:"id" yaml:"id" mapstructure:"id"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty" mapstructure:"reason"`
}

// ParseIgnoreFlag parses the "ID[:reason]" command-line form.
func ParseIgnoreFlag(value string) IgnoreEntry {
	id, reason, _ := strings.Cut(value, ":")
	return IgnoreEntry{ID: strings.TrimSpace(id), Reason: strings.TrimSpace(reason)}
}

// MergeIgnoreEntries unions both lists by id. CLI entries come first and win
// over a config entry with the same id; later duplicates within one source
// are dropped.
func MergeIgnoreEntries(fromConfig, fromCLI []IgnoreEntry) []IgnoreEntry {
	seen := make(map[string]bool, len(fromConfig)+len(fromCLI))
	merged := make([]IgnoreEntry, 0, len(fromConfig)+len(fromCLI))

	for _, source := range [][]IgnoreEntry{fromCLI, fromConfig} {
		for _, e := range source {
			id := strings.TrimSpace(e.ID)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			merged = append(merged, IgnoreEntry{ID: id, Reason: e.Reason})
		}
	}
	return merged
}
