package rule_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwoody/mdc/pkg/rule"
)

func writeRule(t *testing.T, root, relPath, content string) {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func matchIDs(matches []rule.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Document.ID)
	}

	return ids
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("empty directory yields empty set", func(t *testing.T) {
		t.Parallel()

		rs, err := rule.Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 0, rs.Len())
		assert.Empty(t, rs.IDs())
	})

	t.Run("missing root fails", func(t *testing.T) {
		t.Parallel()

		_, err := rule.Load(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rules root")
	})

	t.Run("root must be a directory", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeRule(t, root, "file.mdc", "body\n")

		_, err := rule.Load(filepath.Join(root, "file.mdc"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("discovers documents recursively", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeRule(t, root, "ruby.mdc", "---\ndescription: Ruby.\n---\nbody\n")
		writeRule(t, root, "react/components.mdc", "---\ndescription: React.\n---\nbody\n")
		writeRule(t, root, "workflows/api-design.md", "# Workflow\n")
		writeRule(t, root, "notes.txt", "not a rule\n")

		rs, err := rule.Load(root)
		require.NoError(t, err)

		assert.Equal(t, []string{"react/components", "ruby", "workflows/api-design"}, rs.IDs())

		doc, ok := rs.Get("react/components")
		require.True(t, ok)
		assert.Equal(t, "React.", doc.Description)
		assert.Equal(t, "react/components.mdc", doc.Path)
	})

	t.Run("malformed document is skipped and reported", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeRule(t, root, "good.mdc", "---\ndescription: Good.\n---\nbody\n")
		writeRule(t, root, "bad.mdc", "---\ndescription: never closed\n")

		rs, err := rule.Load(root)
		require.NoError(t, err)

		assert.Equal(t, []string{"good"}, rs.IDs())
		require.Len(t, rs.Issues(), 1)

		parseErr := &rule.ParseError{}
		require.ErrorAs(t, rs.Issues()[0], &parseErr)
		assert.Equal(t, "bad.mdc", parseErr.Path)
	})

	t.Run("duplicate identifiers keep the first document", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeRule(t, root, "ruby.md", "first\n")
		writeRule(t, root, "ruby.mdc", "second\n")

		rs, err := rule.Load(root)
		require.NoError(t, err)

		assert.Equal(t, []string{"ruby"}, rs.IDs())
		require.Len(t, rs.Issues(), 1)
		assert.Contains(t, rs.Issues()[0].Error(), "duplicate identifier")
	})

	t.Run("dot directories are skipped", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeRule(t, root, "ruby.mdc", "body\n")
		writeRule(t, root, ".git/config.mdc", "body\n")

		rs, err := rule.Load(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"ruby"}, rs.IDs())
	})

	t.Run("custom extensions", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeRule(t, root, "ruby.rules", "body\n")
		writeRule(t, root, "ignored.mdc", "body\n")

		rs, err := rule.Load(root, rule.WithExtensions(".rules"))
		require.NoError(t, err)
		assert.Equal(t, []string{"ruby"}, rs.IDs())
	})
}

func TestRuleSet_Resolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRule(t, root, "ruby.mdc", "---\ndescription: Ruby.\nalwaysApply: true\n---\nbody\n")
	writeRule(t, root, "react.mdc", "---\ndescription: React.\nglobs: \"*.tsx\"\n---\nbody\n")
	writeRule(t, root, "rails.mdc", "---\ndescription: Rails.\nglobs: \"**/*.rb\"\n---\nbody\n")
	writeRule(t, root, "manual.mdc", "---\ndescription: Only on request.\n---\nbody\n")

	rs, err := rule.Load(root)
	require.NoError(t, err)

	t.Run("always apply included for unmatched path", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("README.txt", nil)
		assert.Equal(t, []string{"ruby"}, matchIDs(matches))
		assert.Equal(t, rule.ReasonAlwaysApply, matches[0].Reason)
	})

	t.Run("glob match by extension", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("app/models/user.rb", nil)
		assert.Equal(t, []string{"ruby", "rails"}, matchIDs(matches))

		matches = rs.Resolve("app/models/user.ts", nil)
		assert.Equal(t, []string{"ruby"}, matchIDs(matches))
	})

	t.Run("always apply before glob matches", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("src/App.tsx", nil)
		require.Equal(t, []string{"ruby", "react"}, matchIDs(matches))
		assert.Equal(t, rule.ReasonAlwaysApply, matches[0].Reason)
		assert.Equal(t, rule.ReasonGlob, matches[1].Reason)
	})

	t.Run("explicit identifiers come first in request order", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("app/models/user.rb", []string{"manual", "react"})
		assert.Equal(t, []string{"manual", "react", "ruby", "rails"}, matchIDs(matches))
		assert.Equal(t, rule.ReasonExplicit, matches[0].Reason)
		assert.Equal(t, rule.ReasonExplicit, matches[1].Reason)
	})

	t.Run("explicit wins over other reasons without duplication", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("app/models/user.rb", []string{"rails", "ruby"})
		assert.Equal(t, []string{"rails", "ruby"}, matchIDs(matches))

		for _, m := range matches {
			assert.Equal(t, rule.ReasonExplicit, m.Reason)
		}
	})

	t.Run("unknown explicit identifiers are ignored", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("README.txt", []string{"nope", "manual"})
		assert.Equal(t, []string{"manual", "ruby"}, matchIDs(matches))
	})

	t.Run("duplicate explicit requests appear once", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve("README.txt", []string{"manual", "manual"})
		assert.Equal(t, []string{"manual", "ruby"}, matchIDs(matches))
	})

	t.Run("resolve is deterministic", func(t *testing.T) {
		t.Parallel()

		first := rs.Resolve("app/models/user.rb", []string{"manual"})
		second := rs.Resolve("app/models/user.rb", []string{"manual"})
		assert.Equal(t, first, second)
	})

	t.Run("absolute target under root is relativized", func(t *testing.T) {
		t.Parallel()

		matches := rs.Resolve(filepath.Join(root, "src", "App.tsx"), nil)
		assert.Equal(t, []string{"ruby", "react"}, matchIDs(matches))
	})
}

func TestSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRule(t, root, "ruby.mdc", "---\nalwaysApply: true\n---\nbody\n")

	src, err := rule.NewSource(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"ruby"}, src.Get().IDs())

	// A new document appears after an explicit reload.
	writeRule(t, root, "react.mdc", "---\nglobs: \"*.tsx\"\n---\nbody\n")

	set, err := src.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "ruby"}, set.IDs())
	assert.Equal(t, []string{"react", "ruby"}, src.Get().IDs())
}
