package rule

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchGlob reports whether a single pattern matches the target path.
// Patterns use shell-glob semantics (`*`, `**`, `?`, character classes) via
// [doublestar.Match]. A pattern containing no path separator is also tried
// against the basename, so `*.rb` applies to Ruby files in any directory.
func matchGlob(pattern, target string) bool {
	p := filepath.ToSlash(strings.TrimSpace(pattern))
	if p == "" {
		return false
	}

	t := path.Clean(filepath.ToSlash(target))

	if ok, err := doublestar.Match(p, t); err == nil && ok {
		return true
	}

	if !strings.Contains(p, "/") {
		if ok, err := doublestar.Match(p, path.Base(t)); err == nil && ok {
			return true
		}
	}

	return false
}

// Matches reports whether any of the document's globs match the target path.
// The target must be relative to the rules root.
func (d *Document) Matches(target string) bool {
	for _, g := range d.Globs {
		if matchGlob(g, target) {
			return true
		}
	}

	return false
}
