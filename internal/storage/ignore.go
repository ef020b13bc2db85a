package storage

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreMatcher filters corpus-relative slash paths against a set of
// doublestar glob patterns such as "drafts/**" or "**/*.bak". A pattern
// that matches a directory ignores everything beneath it.
type IgnoreMatcher struct {
	patterns []string
}

func NewIgnoreMatcher(patterns ...string) *IgnoreMatcher {
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether rel is covered by any ignore pattern. Invalid
// patterns never match; ValidatePatterns is the place to catch them.
func (m *IgnoreMatcher) Match(rel string) bool {
	if len(m.patterns) == 0 || rel == "" || rel == "." {
		return false
	}
	for p := rel; p != "." && p != "/"; p = path.Dir(p) {
		for _, pat := range m.patterns {
			if ok, _ := doublestar.Match(pat, p); ok {
				return true
			}
		}
	}
	return false
}

// ValidatePatterns checks every glob for syntax errors and returns an
// error naming the first offending pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("storage: ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	return nil
}
