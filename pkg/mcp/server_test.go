package mcp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rwoody/mdc/pkg/mcp"
	"github.com/rwoody/mdc/pkg/rule"
)

func writeRule(t *testing.T, root, relPath, content string) {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

//nolint:paralleltest,tparallel // Shares a clientSession.
func TestServer_Integration(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRule(t, root, "ruby.mdc", "---\ndescription: Ruby conventions.\nalwaysApply: true\n---\nUse two-space indentation.\n")
	writeRule(t, root, "react.mdc", "---\ndescription: React conventions.\nglobs: \"*.tsx\"\n---\nPrefer function components.\n")

	src, err := rule.NewSource(root)
	require.NoError(t, err)

	testServer := mcp.NewServer("", src)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ctx := t.Context()

	serverSession, err := testServer.Server().Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport)
	require.NoError(t, err)

	tcs := map[string]struct {
		params *sdk.CallToolParams
		want   map[string]any
	}{
		"list_rules": {
			params: &sdk.CallToolParams{
				Name:      "list_rules",
				Arguments: map[string]any{},
			},
			want: map[string]any{
				"message":   "Found 2 rule documents.",
				"root":      root,
				"ruleCount": float64(2),
				"rules": []any{
					map[string]any{
						"id":          "react",
						"description": "React conventions.",
						"path":        "react.mdc",
						"globs":       []any{"*.tsx"},
					},
					map[string]any{
						"id":          "ruby",
						"description": "Ruby conventions.",
						"path":        "ruby.mdc",
						"alwaysApply": true,
					},
				},
			},
		},
		"get_rule_found": {
			params: &sdk.CallToolParams{
				Name: "get_rule",
				Arguments: map[string]any{
					"id": "ruby",
				},
			},
			want: map[string]any{
				"found": true,
				"rule": map[string]any{
					"metadata": map[string]any{
						"id":          "ruby",
						"description": "Ruby conventions.",
						"path":        "ruby.mdc",
						"alwaysApply": true,
					},
					"body": "Use two-space indentation.\n",
				},
			},
		},
		"get_rule_not_found": {
			params: &sdk.CallToolParams{
				Name: "get_rule",
				Arguments: map[string]any{
					"id": "nonexistent",
				},
			},
			want: map[string]any{
				"found": false,
			},
		},
		"resolve_rules": {
			params: &sdk.CallToolParams{
				Name: "resolve_rules",
				Arguments: map[string]any{
					"path": "src/App.tsx",
				},
			},
			want: map[string]any{
				"message":    `Resolved 2 rules for "src/App.tsx".`,
				"path":       "src/App.tsx",
				"matchCount": float64(2),
				"matches": []any{
					map[string]any{
						"id":          "ruby",
						"description": "Ruby conventions.",
						"path":        "ruby.mdc",
						"alwaysApply": true,
						"reason":      "always-apply",
					},
					map[string]any{
						"id":          "react",
						"description": "React conventions.",
						"path":        "react.mdc",
						"globs":       []any{"*.tsx"},
						"reason":      "glob",
					},
				},
			},
		},
		"resolve_rules_explicit": {
			params: &sdk.CallToolParams{
				Name: "resolve_rules",
				Arguments: map[string]any{
					"path":  "README.md",
					"rules": []any{"react"},
				},
			},
			want: map[string]any{
				"message":    `Resolved 2 rules for "README.md".`,
				"path":       "README.md",
				"matchCount": float64(2),
				"matches": []any{
					map[string]any{
						"id":          "react",
						"description": "React conventions.",
						"path":        "react.mdc",
						"globs":       []any{"*.tsx"},
						"reason":      "explicit",
					},
					map[string]any{
						"id":          "ruby",
						"description": "Ruby conventions.",
						"path":        "ruby.mdc",
						"alwaysApply": true,
						"reason":      "always-apply",
					},
				},
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			r, err := clientSession.CallTool(ctx, tc.params)
			require.NoError(t, err)

			assert.NotNil(t, r)
			assert.NotNil(t, r.StructuredContent)

			assert.Equal(t, tc.want, r.StructuredContent)
		})
	}

	require.NoError(t, clientSession.Close())
	require.NoError(t, serverSession.Wait())
}

func TestServer_ReloadVisibleToTools(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeRule(t, root, "ruby.mdc", "---\nalwaysApply: true\n---\nbody\n")

	src, err := rule.NewSource(root)
	require.NoError(t, err)

	testServer := mcp.NewServer("", src)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ctx := t.Context()

	serverSession, err := testServer.Server().Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport)
	require.NoError(t, err)

	r, err := clientSession.CallTool(ctx, &sdk.CallToolParams{
		Name:      "list_rules",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)

	content, ok := r.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), content["ruleCount"])

	// New documents become visible after the shared source reloads.
	writeRule(t, root, "react.mdc", "---\nglobs: \"*.tsx\"\n---\nbody\n")

	_, err = src.Reload()
	require.NoError(t, err)

	r, err = clientSession.CallTool(ctx, &sdk.CallToolParams{
		Name:      "list_rules",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)

	content, ok = r.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), content["ruleCount"])

	require.NoError(t, clientSession.Close())
	require.NoError(t, serverSession.Wait())
}
