package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server to integrate with LLM tools",
	Long: `Start Model Context Protocol (MCP) server.
AI assistants can look up catalogue intents and render concrete commands through stdio.

Tools provided by MCP server:
- list_intents: List catalogue intents, optionally filtered
- resolve_intent: Resolve a plain-language request to an intent and parameters
- render_command: Render the OS command for an intent

The server never executes commands.`,
	Example: `  sysop mcp
  sysop mcp register claude-code`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if _, err := app.Watch(cmd.Context()); err != nil {
		appLog.Warn("catalogue hot reload disabled")
	}

	server := mcp.NewServer(app.Catalogue, app.Parser, app.Runner.OSTag(), GetVersion(), appLog)
	return server.Start(cmd.Context())
}
