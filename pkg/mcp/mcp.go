package mcp

const (
	name         = "mdc"
	instructions = `MCP Server 'mdc' exposes the project's rule documents: markdown files with YAML frontmatter that declare when each document applies.

When to use these tools:
- Discovering which conventions or guidelines exist in a project
- Finding the rules that apply to a specific file before editing it
- Reading the full text of a specific rule document

REQUIRED workflow:
1. Use 'resolve_rules' with the path of the file you are working on to get the applicable rules in priority order
2. Use 'get_rule' with EXACT identifiers from 'resolve_rules' or 'list_rules' output to read rule bodies
3. Use 'list_rules' only when you need the full inventory rather than the rules for a specific file
`
)
