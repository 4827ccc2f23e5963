package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetRuleParams defines parameters for the get_rule tool.
type GetRuleParams struct {
	ID string `json:"id" jsonschema:"the identifier of the rule document"`
}

// GetRuleResult contains the result of getting a single rule document.
type GetRuleResult struct {
	Rule  *RuleDetails `json:"rule,omitempty"`
	Error string       `json:"error,omitempty"`
	Found bool         `json:"found"`
}

// RuleDetails contains the full content of a rule document.
type RuleDetails struct {
	Metadata RuleMetadata `json:"metadata"`
	Body     string       `json:"body"`
}

// createGetRuleResult creates the MCP tool result from GetRuleResult.
func createGetRuleResult(result GetRuleResult, params GetRuleParams) *mcp.CallToolResultFor[GetRuleResult] {
	text := formatRuleMessage(result, params)

	return &mcp.CallToolResultFor[GetRuleResult]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		StructuredContent: result,
	}
}

// formatRuleMessage formats the message for the get_rule tool result.
func formatRuleMessage(result GetRuleResult, params GetRuleParams) string {
	if result.Found {
		return fmt.Sprintf("Found rule %q.", params.ID)
	}

	return fmt.Sprintf(
		"INVALID INPUT ERROR: Rule %q not found. Use an EXACT identifier from the list_rules or resolve_rules output.",
		params.ID,
	)
}
