package rule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwoody/mdc/pkg/rule"
)

func TestWatcher(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRule(t, root, "ruby.mdc", "---\nalwaysApply: true\n---\nbody\n")

	src, err := rule.NewSource(root)
	require.NoError(t, err)

	w, err := rule.NewWatcher(src)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	events := make(chan rule.EventReload, 8)
	w.Subscribe(events)

	go w.Watch(t.Context())

	t.Run("reloads on new document", func(t *testing.T) {
		writeRule(t, root, "react.mdc", "---\nglobs: \"*.tsx\"\n---\nbody\n")

		assert.Eventually(t, func() bool {
			select {
			case evt := <-events:
				return evt.Err == nil && evt.Set.Len() == 2
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)

		assert.Equal(t, []string{"react", "ruby"}, src.Get().IDs())
	})

	t.Run("reloads on document in new subdirectory", func(t *testing.T) {
		writeRule(t, root, "go/style.mdc", "---\nglobs: \"**/*.go\"\n---\nbody\n")

		assert.Eventually(t, func() bool {
			return src.Get().Len() == 3
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		writeRule(t, root, "notes.txt", "not a rule\n")

		// Give the watcher a moment to (not) react.
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 3, src.Get().Len())
	})
}
