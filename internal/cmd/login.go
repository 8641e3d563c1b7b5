package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/auth"
	userconfig "github.com/DevSymphony/sysop/internal/config"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/internal/util/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and start a session",
	Long: `Verify your username and password against the local users database and
store a sealed session in ~/.config/sysop so later commands do not prompt.

The session lifetime comes from session_ttl in the user config (default 30m).`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if sess, err := currentSession(); err == nil {
		ui.PrintWarn(fmt.Sprintf("Already logged in as %s", sess.Username))
		fmt.Println(ui.Indent("Run 'sysop logout' first to switch users"))
		return nil
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	store, err := app.OpenUsers()
	if err != nil {
		return err
	}

	username, password, err := promptCredentials()
	if err != nil {
		return err
	}
	role, err := store.Verify(cmd.Context(), username, password)
	if err != nil {
		return err
	}

	userCfg, err := userconfig.LoadConfig()
	if err != nil {
		return err
	}

	sealer, _, err := auth.LoadOrCreateSealer(config.GetSecretKeyPath())
	if err != nil {
		return err
	}
	sess := auth.NewSession(username, time.Now(), userCfg.GetSessionTTL())
	blob, err := auth.SealSession(sealer, sess)
	if err != nil {
		return err
	}
	if err := userconfig.SaveSession(blob); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if userCfg.DefaultUser != username {
		userCfg.DefaultUser = username
		if err := userconfig.SaveConfig(userCfg); err != nil {
			appLog.Warn("failed to remember default user")
		}
	}

	ui.PrintOK(fmt.Sprintf("Logged in as %s (%s)", username, role))
	fmt.Println(ui.Indent("Session expires " + sess.ExpiresAt.Local().Format(time.Kitchen)))
	return nil
}
