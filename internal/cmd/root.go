package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/logger"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/internal/util/config"
)

// verbose is a global flag for verbose output
var verbose bool

var (
	projectCfg  *config.ProjectConfig
	appLog      = zap.NewNop()
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "sysop",
	Short: "sysop - natural-language assistant for system administration",
	Long: `sysop turns plain requests like "ping 8.8.8.8" or "покажи процессы"
into concrete OS commands and runs them with role checks and an audit trail.

Features:
  - Editable command catalogue (JSON, JSONC or YAML) with hot reload
  - Fuzzy phrase matching in English and Russian
  - Parameter extraction (IPs, hosts, ports, users, paths, choices)
  - Operator/admin roles and an SQLite audit log
  - Macro recording and playback
  - MCP server for AI assistants`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadProjectConfig()
		if err != nil {
			return err
		}
		projectCfg = cfg

		// file logging only inside an initialized project
		logDir := ""
		if _, err := os.Stat(config.Dir()); err == nil {
			logDir = cfg.LogDir
		}
		lg, closeFn, err := logger.New(logger.Options{Verbose: verbose, Dir: logDir})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		appLog, closeLogger = lg, closeFn
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogger()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		ui.PrintError(err.Error())
		closeLogger()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
