package mcp

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rwoody/mdc/pkg/rule"
)

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct{}

// ListRulesResult contains the result of listing rule documents.
type ListRulesResult struct {
	Message   string         `json:"message"`
	Root      string         `json:"root"`
	Rules     []RuleMetadata `json:"rules"`
	RuleCount int            `json:"ruleCount"`
}

// RuleMetadata describes a rule document without its body.
type RuleMetadata struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Path        string   `json:"path"`
	Globs       []string `json:"globs,omitempty"`
	AlwaysApply bool     `json:"alwaysApply,omitempty"`
}

func newRuleMetadata(doc *rule.Document) RuleMetadata {
	return RuleMetadata{
		ID:          doc.ID,
		Description: doc.Description,
		Path:        doc.Path,
		Globs:       doc.Globs,
		AlwaysApply: doc.AlwaysApply,
	}
}

// createListRulesResult creates the MCP tool result from ListRulesResult.
func createListRulesResult(result ListRulesResult) *mcp.CallToolResultFor[ListRulesResult] {
	msg := fmt.Sprintf("Found %d rule documents.", result.RuleCount)
	result.Message = msg

	return &mcp.CallToolResultFor[ListRulesResult]{
		Content: []mcp.Content{
			&mcp.TextContent{
				Text: msg,
			},
		},
		StructuredContent: result,
	}
}
