package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/rwoody/mdc/pkg/rule"
	"github.com/rwoody/mdc/pkg/version"
)

// Server implements the MCP server for mdc. Tool calls read the current rule
// set from a shared [rule.Source]; reloads (manual or watcher-driven) are
// picked up by subsequent calls.
type Server struct {
	src     *rule.Source
	server  *mcp.Server
	tracer  trace.Tracer
	address string
}

// NewServer creates a new MCP server instance over the given rule source.
func NewServer(address string, src *rule.Source) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	opts := &mcp.ServerOptions{
		Instructions: instructions,
	}

	s := &Server{
		address: address,
		server:  mcp.NewServer(impl, opts),
		src:     src,
		tracer:  otel.Tracer("mdc/mcp"),
	}

	s.registerTools()

	return s
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List all rule documents in the project's rules directory with their metadata.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, WithTracing(s.tracer, s.handleListRules))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_rule",
		Description: "Get the full body of a specific rule document. You MUST use an identifier from a list_rules or resolve_rules output EXACTLY.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Description: "The identifier of the rule document.",
				},
			},
			Required: []string{"id"},
		},
	}, WithTracing(s.tracer, s.handleGetRule))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_rules",
		Description: "Resolve the rule documents that apply to a target file path, in priority order. You MUST specify a path.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The target file path to resolve rules for, relative to the rules root.",
				},
				"rules": {
					Type:        "array",
					Description: "Identifiers of rules to include explicitly, in priority order.",
					Items: &jsonschema.Schema{
						Type: "string",
					},
				},
			},
			Required: []string{"path"},
		},
	}, WithTracing(s.tracer, s.handleResolveRules))
}

// handleListRules handles the list_rules tool call.
func (s *Server) handleListRules(
	_ context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[ListRulesParams],
) (*mcp.CallToolResultFor[ListRulesResult], error) {
	set := s.src.Get()

	result := ListRulesResult{
		Root:  set.Root(),
		Rules: []RuleMetadata{},
	}

	for _, doc := range set.Documents() {
		result.Rules = append(result.Rules, newRuleMetadata(doc))
	}

	result.RuleCount = len(result.Rules)

	return createListRulesResult(result), nil
}

// handleGetRule handles the get_rule tool call.
func (s *Server) handleGetRule(
	_ context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[GetRuleParams],
) (*mcp.CallToolResultFor[GetRuleResult], error) {
	result := GetRuleResult{}

	doc, ok := s.src.Get().Get(params.Arguments.ID)
	if ok {
		result.Found = true
		result.Rule = &RuleDetails{
			Metadata: newRuleMetadata(doc),
			Body:     doc.Body,
		}
	}

	return createGetRuleResult(result, params.Arguments), nil
}

// handleResolveRules handles the resolve_rules tool call.
func (s *Server) handleResolveRules(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ResolveRulesParams],
) (*mcp.CallToolResultFor[ResolveRulesResult], error) {
	startTime := time.Now()

	matches := s.src.Get().Resolve(params.Arguments.Path, params.Arguments.Rules)

	result := ResolveRulesResult{
		Path:    params.Arguments.Path,
		Matches: []RuleMatch{},
	}
	populateResolveResult(&result, matches)

	slog.DebugContext(ctx, "resolve_rules execution completed",
		slog.String("path", params.Arguments.Path),
		slog.Int("match_count", result.MatchCount),
		slog.Duration("duration", time.Since(startTime)),
	)

	return createResolveRulesResult(result), nil
}

func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve Stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP()
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP() error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)
	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
