package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	userconfig "github.com/DevSymphony/sysop/internal/config"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/internal/util/config"
	"github.com/DevSymphony/sysop/internal/util/env"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change sysop settings",
	Long: `Show or change the project settings in .sysop/config.json and the
per-user settings in ~/.config/sysop/config.json.

Examples:
  sysop config show
  sysop config set matcher containment
  sysop config set os_tag win --env       # write SYSOP_OS_TAG to .sysop/.env
  sysop config set                        # interactive
  sysop config user session_ttl 2h`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(projectCfg, "", "  ")
		if err != nil {
			return err
		}
		ui.PrintTitle("Project", config.GetProjectConfigPath())
		fmt.Println(string(data))

		userCfg, err := userconfig.LoadConfig()
		if err != nil {
			return err
		}
		fmt.Println()
		ui.PrintTitle("User", userconfig.GetConfigPath())
		fmt.Println(ui.Indent("default_user: " + userCfg.DefaultUser))
		fmt.Println(ui.Indent("session_ttl:  " + userCfg.GetSessionTTL().String()))
		return nil
	},
}

var configSetEnv bool

// projectKeys lists the settable project keys in display order
var projectKeys = []string{
	"catalogue_path", "os_tag", "lemmatizer", "matcher", "users_db",
	"audit_db", "log_dir", "macro_dir", "playback_delay_ms", "watch_catalogue",
}

var configSetCmd = &cobra.Command{
	Use:       "set [key] [value]",
	Short:     "Change a project setting",
	Args:      cobra.RangeArgs(0, 2),
	ValidArgs: projectKeys,
	RunE:      runConfigSet,
}

var configUserCmd = &cobra.Command{
	Use:   "user <key> <value>",
	Short: "Change a per-user setting (default_user, session_ttl)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.LoadConfig()
		if err != nil {
			return err
		}
		switch args[0] {
		case "default_user":
			cfg.DefaultUser = args[1]
		case "session_ttl":
			if d, err := time.ParseDuration(args[1]); err != nil || d <= 0 {
				return fmt.Errorf("session_ttl must be a positive duration such as 30m or 2h")
			}
			cfg.SessionTTL = args[1]
		default:
			return fmt.Errorf("unknown user config key %q", args[0])
		}
		if err := userconfig.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		ui.PrintOK(fmt.Sprintf("%s updated", args[0]))
		return nil
	},
}

func init() {
	configSetCmd.Flags().BoolVar(&configSetEnv, "env", false, "Write the value to .sysop/.env instead of config.json")
	configCmd.AddCommand(configShowCmd, configSetCmd, configUserCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	var key, value string
	switch len(args) {
	case 2:
		key, value = args[0], args[1]
	case 1:
		return fmt.Errorf("missing value for %s", args[0])
	default:
		restore := useSelectTemplateNoFilter()
		err := survey.AskOne(&survey.Select{Message: "Setting:", Options: projectKeys}, &key)
		restore()
		if err != nil {
			return err
		}
		if err := survey.AskOne(&survey.Input{Message: key + ":"}, &value); err != nil {
			return err
		}
	}

	// validate through the typed setter even when writing to .env
	if err := projectCfg.Set(key, value); err != nil {
		return err
	}

	if configSetEnv {
		envKey := env.Prefix + strings.ToUpper(key)
		if key == "catalogue_path" {
			envKey = env.Prefix + "CATALOGUE"
		}
		if err := env.SaveKeyToEnvFile(config.GetProjectEnvPath(), envKey, value); err != nil {
			return fmt.Errorf("failed to save %s: %w", envKey, err)
		}
		ui.PrintOK(fmt.Sprintf("%s saved to %s", envKey, config.GetProjectEnvPath()))
		return nil
	}

	if !config.ProjectConfigExists() {
		ui.PrintWarn("No .sysop/config.json yet; creating one (run 'sysop init' for a full setup)")
	}
	if err := config.SaveProjectConfig(projectCfg); err != nil {
		return err
	}
	ui.PrintOK(fmt.Sprintf("%s = %s", key, value))
	if os.Getenv(env.Prefix+strings.ToUpper(key)) != "" {
		ui.PrintWarn("an environment variable overrides this setting")
	}
	return nil
}
