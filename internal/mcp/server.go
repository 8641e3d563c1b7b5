package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/nlu"
	"github.com/DevSymphony/sysop/internal/roles"
)

// Server is a MCP (Model Context Protocol) server.
// It exposes the catalogue and the NLU pipeline over stdio. Tools only
// resolve and render; nothing is executed on behalf of the client.
type Server struct {
	cat     *catalogue.Catalogue
	parser  *nlu.Parser
	osTag   string
	version string
	logger  *zap.Logger
}

// NewServer creates a new MCP server instance.
func NewServer(cat *catalogue.Catalogue, parser *nlu.Parser, osTag, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cat: cat, parser: parser, osTag: osTag, version: version, logger: logger}
}

// Start runs the server over stdio until the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("MCP server started (stdio mode)",
		zap.String("catalogue", s.cat.Source()),
		zap.Int("intents", len(s.cat.Intents())))
	return s.sdkServer().Run(ctx, &sdkmcp.StdioTransport{})
}

// RPCError is an error type used for internal error handling.
type RPCError struct {
	Code    int
	Message string
}

// ListIntentsInput represents the input schema for the list_intents tool.
type ListIntentsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"Search text matched against intent id and description (optional). Example: network"`
}

// ResolveIntentInput represents the input schema for the resolve_intent tool.
type ResolveIntentInput struct {
	Text string `json:"text" jsonschema:"Free-text administrative request in English or Russian. Example: ping 8.8.8.8"`
}

// RenderCommandInput represents the input schema for the render_command tool.
type RenderCommandInput struct {
	Intent string            `json:"intent" jsonschema:"Intent id, e.g. network.ping"`
	Params map[string]string `json:"params,omitempty" jsonschema:"Parameter values by name"`
	OS     string            `json:"os,omitempty" jsonschema:"Template variant: win or linux (defaults to the server platform)"`
}

func (s *Server) sdkServer() *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "sysop",
		Version: s.version,
	}, nil)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_intents",
		Description: "List the administrative intents this host understands, with parameters and required role.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input ListIntentsInput) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(s.handleListIntents(input))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "resolve_intent",
		Description: "Map a free-text request to an intent id and extract its parameters. Reports missing required parameters.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input ResolveIntentInput) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(s.handleResolveIntent(input))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "render_command",
		Description: "Render the concrete shell command line for an intent and parameter values. The command is not executed.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, input RenderCommandInput) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(s.handleRenderCommand(input))
	})

	return server
}

func toolResult(text string, rpcErr *RPCError) (*sdkmcp.CallToolResult, any, error) {
	if rpcErr != nil {
		return &sdkmcp.CallToolResult{IsError: true}, nil, fmt.Errorf("%s", rpcErr.Message)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}, nil, nil
}

func (s *Server) handleListIntents(input ListIntentsInput) (string, *RPCError) {
	var sb strings.Builder
	count := 0
	for _, def := range catalogue.Search(s.cat.Intents(), input.Filter) {
		count++
		fmt.Fprintf(&sb, "%d. %s [%s]\n", count, def.ID, roles.RequiredRole(def))
		if def.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", def.Description)
		}
		for _, p := range def.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&sb, "   - %s (%s, %s)\n", p.Name, p.Kind, req)
		}
	}

	if count == 0 {
		return "No intents found for the specified filter.", nil
	}
	return fmt.Sprintf("Found %d intent(s):\n\n%s", count, sb.String()), nil
}

func (s *Server) handleResolveIntent(input ResolveIntentInput) (string, *RPCError) {
	if strings.TrimSpace(input.Text) == "" {
		return "", &RPCError{Code: -32602, Message: "text is required"}
	}

	res := s.parser.Parse(input.Text)
	if !res.Matched {
		s.logger.Debug("mcp resolve: no match", zap.String("text", input.Text))
		return "No intent matched. Try list_intents for the supported requests.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Intent: %s\n", res.Intent)
	fmt.Fprintf(&sb, "Matched phrase: %q (score %.1f)\n", res.Phrase, res.Score)

	names := make([]string, 0, len(res.Params))
	for name := range res.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		sb.WriteString("Parameters:\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "  %s = %s\n", name, res.Params[name])
		}
	}

	if def, ok := s.cat.Get(res.Intent); ok {
		if missing := nlu.Missing(def, res.Params); len(missing) > 0 {
			sb.WriteString("Missing required parameters:\n")
			for _, p := range missing {
				fmt.Fprintf(&sb, "  %s (%s)", p.Name, p.Kind)
				if p.Example != "" {
					fmt.Fprintf(&sb, " e.g. %s", p.Example)
				}
				sb.WriteString("\n")
			}
		}
		fmt.Fprintf(&sb, "Required role: %s\n", roles.RequiredRole(def))
	}
	return sb.String(), nil
}

func (s *Server) handleRenderCommand(input RenderCommandInput) (string, *RPCError) {
	if input.Intent == "" {
		return "", &RPCError{Code: -32602, Message: "intent is required"}
	}
	osTag := input.OS
	if osTag == "" {
		osTag = s.osTag
	}

	line, err := s.cat.Render(input.Intent, osTag, input.Params)
	if err != nil {
		return "", &RPCError{Code: -32602, Message: err.Error()}
	}
	return line, nil
}
