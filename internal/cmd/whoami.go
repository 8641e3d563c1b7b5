package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/ui"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Display the current session user",
	Long: `Show the user of the current login session, the role stored in the users
database and any extra profile fields.

Output can be formatted as JSON using --json flag for scripting purposes.`,
	RunE: runWhoami,
}

var whoamiJSON bool

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := currentSession()
	if err != nil {
		if whoamiJSON {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
			return nil
		}
		ui.PrintError(err.Error())
		fmt.Println(ui.Indent("Run 'sysop login' first"))
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
	role, err := store.Role(cmd.Context(), sess.Username)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", sess.Username, err)
	}
	extra, err := store.Extra(cmd.Context(), sess.Username)
	if err != nil {
		appLog.Debug("no extra profile data")
	}

	if whoamiJSON {
		output := map[string]any{
			"username":   sess.Username,
			"role":       role,
			"expires_at": sess.ExpiresAt,
		}
		if len(extra) > 0 {
			output["extra"] = extra
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	fmt.Printf("Username: %s\n", sess.Username)
	fmt.Printf("Role: %s\n", role)
	fmt.Printf("Session expires: %s\n", sess.ExpiresAt.Local().Format(time.RFC1123))
	for k, v := range extra {
		fmt.Printf("%s: %v\n", k, v)
	}
	return nil
}
