package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"github.com/DevSymphony/sysop/internal/ui"
)

// mcpServerName is the key sysop registers under in client configs
const mcpServerName = "sysop"

// mcpApps lists the supported clients in menu order
var mcpApps = []string{"claude-desktop", "claude-code", "cursor", "vscode"}

// MCPRegistrationConfig represents the MCP configuration structure
// Used for Claude Desktop, Claude Code, Cursor
type MCPRegistrationConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

// VSCodeMCPConfig represents the VS Code MCP configuration structure
type VSCodeMCPConfig struct {
	Servers map[string]MCPServerConfig `json:"servers"`
	Inputs  []any                      `json:"inputs,omitempty"`
}

// MCPServerConfig represents a single MCP server configuration
type MCPServerConfig struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

var mcpRegisterCmd = &cobra.Command{
	Use:       "register [app]",
	Short:     "Register sysop as an MCP server for an AI client",
	Long:      `Add sysop to the MCP configuration of Claude Desktop, Claude Code, Cursor or VS Code. Without an argument a menu is shown.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: append(append([]string{}, mcpApps...), "all"),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			promptMCPRegistration()
			return nil
		}
		if args[0] == "all" {
			for _, app := range mcpApps {
				if err := registerMCP(app); err != nil {
					ui.PrintWarn(fmt.Sprintf("%s: %v", getAppDisplayName(app), err))
				}
			}
			return nil
		}
		return registerMCP(args[0])
	},
}

func init() {
	mcpCmd.AddCommand(mcpRegisterCmd)
}

// promptMCPRegistration asks which client to register sysop with
func promptMCPRegistration() {
	fmt.Println()
	ui.PrintInfo("Would you like to register sysop as an MCP server?")
	fmt.Println(ui.Indent("(sysop MCP lets AI assistants look up and render admin commands)"))
	fmt.Println()

	items := []string{
		"Claude Desktop (global)",
		"Claude Code (project)",
		"Cursor (project)",
		"VS Code Copilot (project)",
		"All",
		"Skip",
	}

	prompt := promptui.Select{
		Label:     "Select option",
		Items:     items,
		Templates: selectTemplates,
		Size:      6,
	}

	index, _, err := prompt.Run()
	if err != nil || index == len(items)-1 {
		fmt.Println("Skipped MCP registration")
		fmt.Println(ui.Indent("Tip: run 'sysop mcp register' later"))
		return
	}

	if index < len(mcpApps) {
		if err := registerMCP(mcpApps[index]); err != nil {
			ui.PrintError(fmt.Sprintf("Failed to register %s: %v", getAppDisplayName(mcpApps[index]), err))
			return
		}
		ui.PrintDone(fmt.Sprintf("MCP registration complete! Reload %s to use sysop.", getAppDisplayName(mcpApps[index])))
		return
	}

	successCount := 0
	for _, app := range mcpApps {
		if err := registerMCP(app); err != nil {
			ui.PrintWarn(fmt.Sprintf("%s: %v", getAppDisplayName(app), err))
			continue
		}
		successCount++
	}
	if successCount > 0 {
		ui.PrintDone(fmt.Sprintf("MCP registration complete! Registered to %d app(s).", successCount))
	}
}

// registerMCP registers sysop as an MCP server for the specified app
func registerMCP(app string) error {
	configPath := getMCPConfigPath(app)
	if configPath == "" {
		return fmt.Errorf("config path for %s could not be determined", getAppDisplayName(app))
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate sysop binary: %w", err)
	}

	scope := "project"
	if app == "claude-desktop" {
		scope = "global"
	}
	ui.PrintOK(fmt.Sprintf("Configuring %s (%s)", getAppDisplayName(app), scope))
	fmt.Println(ui.Indent("Location: " + configPath))

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	existing, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if len(existing) > 0 {
		backupPath := configPath + ".bak"
		if err := os.WriteFile(backupPath, existing, 0o644); err != nil {
			ui.PrintWarn(fmt.Sprintf("Failed to create backup: %v", err))
		} else {
			fmt.Println(ui.Indent("Backup: " + filepath.Base(backupPath)))
		}
	}

	data, err := mergeMCPConfig(existing, app, exe)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Println(ui.Indent("sysop MCP server registered"))
	return nil
}

// mergeMCPConfig adds or replaces the sysop entry in an existing client
// config. Comments and trailing commas in the existing file are tolerated;
// content that still fails to parse is replaced.
func mergeMCPConfig(existing []byte, app, command string) ([]byte, error) {
	server := MCPServerConfig{Command: command, Args: []string{"mcp"}}
	if app == "cursor" || app == "vscode" {
		server.Type = "stdio"
	}

	clean := jsonc.ToJSON(existing)

	if app == "vscode" {
		var cfg VSCodeMCPConfig
		if len(existing) > 0 {
			if err := json.Unmarshal(clean, &cfg); err != nil {
				cfg = VSCodeMCPConfig{}
			}
		}
		if cfg.Servers == nil {
			cfg.Servers = make(map[string]MCPServerConfig)
		}
		cfg.Servers[mcpServerName] = server
		return marshalMCP(cfg)
	}

	var cfg MCPRegistrationConfig
	if len(existing) > 0 {
		if err := json.Unmarshal(clean, &cfg); err != nil {
			cfg = MCPRegistrationConfig{}
		}
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig)
	}
	cfg.MCPServers[mcpServerName] = server
	return marshalMCP(cfg)
}

func marshalMCP(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append(data, '\n'), nil
}

// getMCPConfigPath returns the MCP config file path for the specified app
func getMCPConfigPath(app string) string {
	homeDir, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()

	switch app {
	case "claude-desktop":
		switch runtime.GOOS {
		case "windows":
			return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
		case "darwin":
			return filepath.Join(homeDir, "Library", "Application Support", "Claude", "claude_desktop_config.json")
		case "linux":
			return filepath.Join(homeDir, ".config", "Claude", "claude_desktop_config.json")
		}
	case "claude-code":
		return filepath.Join(cwd, ".mcp.json")
	case "cursor":
		return filepath.Join(cwd, ".cursor", "mcp.json")
	case "vscode":
		return filepath.Join(cwd, ".vscode", "mcp.json")
	}
	return ""
}

// getAppDisplayName returns the display name for the app
func getAppDisplayName(app string) string {
	switch app {
	case "claude-desktop":
		return "Claude Desktop"
	case "claude-code":
		return "Claude Code"
	case "cursor":
		return "Cursor"
	case "vscode":
		return "VS Code"
	default:
		return app
	}
}
