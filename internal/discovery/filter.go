package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters catalog test names by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters test names by pattern using wildcard matching.
// Supports patterns like "alu_*" or "*branch*"; a pattern without wildcards
// matches as a substring.
func (f *Filter) FilterByName(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}

	hasWildcard := strings.ContainsAny(pattern, "*?")
	var filtered []string

	for _, name := range names {
		// Try to match using filepath.Match (supports * and ? wildcards)
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			filtered = append(filtered, name)
			continue
		}

		if !hasWildcard {
			if strings.Contains(name, pattern) {
				filtered = append(filtered, name)
			}
			continue
		}

		// filepath.Match is anchored; fall back to matching the pieces
		// between '*' in order, so "*alu*add" finds "unit_alu_add_carry".
		if matchPieces(name, strings.Split(pattern, "*")) {
			filtered = append(filtered, name)
		}
	}

	return filtered
}

func matchPieces(name string, pieces []string) bool {
	nonEmpty := false
	rest := name
	for _, piece := range pieces {
		if piece == "" || strings.Contains(piece, "?") {
			continue
		}
		nonEmpty = true
		idx := strings.Index(rest, piece)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(piece):]
	}
	return nonEmpty
}
