package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/auth"
	"github.com/DevSymphony/sysop/internal/bootstrap"
	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/internal/ui"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage sysop accounts (admin only)",
}

var (
	userAddRole  string
	userAddExtra []string
)

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account",
	Example: `  sysop user add alice --role operator
  sysop user add bob --role admin --extra full_name="Bob Smith"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), true, func(store *auth.Store, _ bootstrap.Identity) error {
			role, err := chooseRole(userAddRole)
			if err != nil {
				return err
			}
			extra, err := parseExtra(userAddExtra)
			if err != nil {
				return err
			}
			password, err := askNewPassword(args[0])
			if err != nil {
				return err
			}
			if err := store.AddUser(cmd.Context(), args[0], password, role, extra); err != nil {
				return err
			}
			ui.PrintOK(fmt.Sprintf("user %s created (%s)", args[0], role))
			return nil
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), true, func(store *auth.Store, _ bootstrap.Identity) error {
			users, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				extra := ""
				if u.HasExtra {
					extra = "yes"
				}
				rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, string(u.Role), extra})
			}
			ui.PrintTable([]string{"ID", "USERNAME", "ROLE", "EXTRA"}, rows)
			return nil
		})
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd [username]",
	Short: "Change a password (your own without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), false, func(store *auth.Store, who bootstrap.Identity) error {
			target := who.Username
			if len(args) == 1 {
				target = args[0]
			}
			if target != who.Username && !roles.Allows(who.Role, roles.Admin) {
				return fmt.Errorf("%w: changing another user's password requires role %s", bootstrap.ErrPermissionDenied, roles.Admin)
			}
			password, err := askNewPassword(target)
			if err != nil {
				return err
			}
			if err := store.SetPassword(cmd.Context(), target, password); err != nil {
				return err
			}
			ui.PrintOK("password changed for " + target)
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUserStore(cmd.Context(), true, func(store *auth.Store, who bootstrap.Identity) error {
			if args[0] == who.Username {
				return errors.New("refusing to delete the account you are logged in with")
			}
			confirm := promptui.Prompt{Label: "Delete " + args[0], IsConfirm: true}
			if _, err := confirm.Run(); err != nil {
				ui.PrintInfo("Cancelled")
				return nil
			}
			if err := store.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			ui.PrintOK("deleted " + args[0])
			return nil
		})
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userAddRole, "role", "", "operator or admin (prompted when empty)")
	userAddCmd.Flags().StringArrayVar(&userAddExtra, "extra", nil, "Extra profile field as key=value, stored encrypted (repeatable)")
	userCmd.AddCommand(userAddCmd, userListCmd, userPasswdCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

// withUserStore authenticates the caller and hands over the users store.
// adminOnly rejects callers below the admin role.
func withUserStore(ctx context.Context, adminOnly bool, fn func(*auth.Store, bootstrap.Identity) error) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	who, err := authenticate(ctx, app)
	if err != nil {
		return err
	}
	if adminOnly && !roles.Allows(who.Role, roles.Admin) {
		return fmt.Errorf("%w: requires role %s", bootstrap.ErrPermissionDenied, roles.Admin)
	}

	store, err := app.OpenUsers()
	if err != nil {
		return err
	}
	return fn(store, who)
}

func chooseRole(name string) (roles.Role, error) {
	if name != "" {
		return roles.Parse(name)
	}
	options := make([]string, 0, len(roles.All()))
	for _, r := range roles.All() {
		options = append(options, string(r))
	}
	restore := useSelectTemplateNoFilter()
	defer restore()

	var picked string
	if err := survey.AskOne(&survey.Select{Message: "Role:", Options: options, Default: string(roles.Operator)}, &picked); err != nil {
		return "", err
	}
	return roles.Parse(picked)
}

func askNewPassword(username string) (string, error) {
	var password, again string
	if err := survey.AskOne(&survey.Password{Message: fmt.Sprintf("New password for %s:", username)}, &password, survey.WithValidator(survey.MinLength(6))); err != nil {
		return "", err
	}
	if err := survey.AskOne(&survey.Password{Message: "Repeat password:"}, &again); err != nil {
		return "", err
	}
	if password != again {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

func parseExtra(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	pairs, err := parseParamFlags(values)
	if err != nil {
		return nil, err
	}
	extra := make(map[string]any, len(pairs))
	for k, v := range pairs {
		extra[k] = v
	}
	return extra, nil
}
