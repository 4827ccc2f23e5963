package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rwoody/mdc/pkg/rule"
)

// ResolveRulesParams defines parameters for the resolve_rules tool.
type ResolveRulesParams struct {
	Path  string   `json:"path"            jsonschema:"the target file path to resolve rules for, relative to the rules root"`
	Rules []string `json:"rules,omitempty" jsonschema:"identifiers of rules to include explicitly, in priority order"`
}

// ResolveRulesResult contains the result of resolving rules for a target path.
type ResolveRulesResult struct {
	Message    string      `json:"message"`
	Path       string      `json:"path"`
	Matches    []RuleMatch `json:"matches"`
	MatchCount int         `json:"matchCount"`
}

// RuleMatch pairs a matched rule with the reason it was selected.
type RuleMatch struct {
	RuleMetadata

	Reason string `json:"reason"`
}

// createResolveRulesResult creates the MCP tool result from ResolveRulesResult.
func createResolveRulesResult(result ResolveRulesResult) *mcp.CallToolResultFor[ResolveRulesResult] {
	msg := fmt.Sprintf("Resolved %d rules for %q.", result.MatchCount, result.Path)
	result.Message = msg

	return &mcp.CallToolResultFor[ResolveRulesResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}

// populateResolveResult fills the result from resolved matches.
func populateResolveResult(result *ResolveRulesResult, matches []rule.Match) {
	result.MatchCount = len(matches)
	for _, m := range matches {
		result.Matches = append(result.Matches, RuleMatch{
			RuleMetadata: newRuleMetadata(m.Document),
			Reason:       string(m.Reason),
		})
	}
}
