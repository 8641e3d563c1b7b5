package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	userconfig "github.com/DevSymphony/sysop/internal/config"
	"github.com/DevSymphony/sysop/internal/ui"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Long:  `Remove the sealed session from ~/.config/sysop.`,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !userconfig.HasSession() {
		ui.PrintWarn("Not logged in")
		return nil
	}

	if err := userconfig.DeleteSession(); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}

	ui.PrintOK("Successfully logged out")
	return nil
}
