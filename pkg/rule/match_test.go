package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rwoody/mdc/pkg/rule"
)

func TestDocument_Matches(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		target string
		globs  []string
		want   bool
	}{
		"doublestar matches nested path": {
			globs:  []string{"**/*.rb"},
			target: "app/models/user.rb",
			want:   true,
		},
		"doublestar matches top level": {
			globs:  []string{"**/*.rb"},
			target: "user.rb",
			want:   true,
		},
		"extension mismatch": {
			globs:  []string{"**/*.rb"},
			target: "app/models/user.ts",
			want:   false,
		},
		"bare pattern matches basename in any directory": {
			globs:  []string{"*.tsx"},
			target: "src/App.tsx",
			want:   true,
		},
		"directory-scoped pattern": {
			globs:  []string{"app/**/*.rb"},
			target: "app/models/user.rb",
			want:   true,
		},
		"directory-scoped pattern outside directory": {
			globs:  []string{"app/**/*.rb"},
			target: "lib/tasks/user.rb",
			want:   false,
		},
		"question mark wildcard": {
			globs:  []string{"spec/?at_spec.rb"},
			target: "spec/cat_spec.rb",
			want:   true,
		},
		"character class": {
			globs:  []string{"file[0-9].txt"},
			target: "file7.txt",
			want:   true,
		},
		"character class miss": {
			globs:  []string{"file[0-9].txt"},
			target: "fileA.txt",
			want:   false,
		},
		"any of several globs": {
			globs:  []string{"*.py", "*.rb"},
			target: "scripts/setup.rb",
			want:   true,
		},
		"no globs": {
			globs:  nil,
			target: "anything.rb",
			want:   false,
		},
		"empty glob entry": {
			globs:  []string{""},
			target: "anything.rb",
			want:   false,
		},
		"dot slash target": {
			globs:  []string{"**/*.rb"},
			target: "./app/models/user.rb",
			want:   true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := &rule.Document{ID: "test", Globs: tc.globs}
			assert.Equal(t, tc.want, doc.Matches(tc.target))
		})
	}
}
