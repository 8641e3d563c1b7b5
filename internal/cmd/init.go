package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/auth"
	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/internal/ui"
	"github.com/DevSymphony/sysop/internal/util/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sysop for the current directory",
	Long: `Create a .sysop directory with the project config, an editable copy of
the built-in command catalogue, the installation key and a users database.

This command:
  1. Creates .sysop/config.json with default settings
  2. Writes .sysop/commands.json from the built-in catalogue
  3. Generates .sysop/secret.key (age identity used to seal user data)
  4. Creates the first admin account in .sysop/users.db
  5. Optionally registers the MCP server for AI tools`,
	RunE: runInit,
}

var (
	initForce       bool
	initAdminUser   string
	initAdminPass   string
	skipMCPRegister bool
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config and catalogue")
	initCmd.Flags().StringVar(&initAdminUser, "admin", "admin", "Name of the first admin account")
	initCmd.Flags().StringVar(&initAdminPass, "admin-password", "", "Password for the admin account (prompted when empty)")
	initCmd.Flags().BoolVar(&skipMCPRegister, "skip-mcp", false, "Skip MCP server registration prompt")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if config.ProjectConfigExists() && !initForce {
		ui.PrintWarn("sysop is already initialized here")
		fmt.Println(ui.Indent("Use --force flag to overwrite"))
		return nil
	}

	ui.PrintTitle("Init", "Setting up "+config.Dir())

	if err := os.MkdirAll(projectCfg.MacroDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", projectCfg.MacroDir, err)
	}

	if err := config.SaveProjectConfig(projectCfg); err != nil {
		return err
	}
	ui.PrintOK("config.json created")
	fmt.Println(ui.Indent("Location: " + config.GetProjectConfigPath()))

	wrote, err := writeCatalogue(projectCfg.CataloguePath, initForce)
	if err != nil {
		return err
	}
	if wrote {
		ui.PrintOK("command catalogue written")
		fmt.Println(ui.Indent("Location: " + projectCfg.CataloguePath))
	} else {
		ui.PrintInfo("keeping existing catalogue " + projectCfg.CataloguePath)
	}

	sealer, created, err := auth.LoadOrCreateSealer(config.GetSecretKeyPath())
	if err != nil {
		return err
	}
	if created {
		ui.PrintOK("installation key generated")
	}

	if err := ensureGitignore(config.GetSecretKeyPath(), projectCfg.UsersDB, projectCfg.AuditDB, projectCfg.LogDir, config.GetProjectEnvPath()); err != nil {
		ui.PrintWarn(fmt.Sprintf("Failed to update .gitignore: %v", err))
	}

	if err := createAdmin(cmd.Context(), sealer); err != nil {
		return err
	}

	if !skipMCPRegister {
		promptMCPRegistration()
	}

	fmt.Println()
	ui.PrintDone("Initialization complete")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println(ui.Indent("Run 'sysop login' to start a session"))
	fmt.Println(ui.Indent("Run 'sysop shell' and type a request, e.g. \"ping 8.8.8.8\""))
	return nil
}

// writeCatalogue copies the built-in definitions to path unless a file is
// already there and force is false.
func writeCatalogue(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	data, err := catalogue.EmbeddedBytes()
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create catalogue directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write catalogue: %w", err)
	}
	return true, nil
}

func createAdmin(ctx context.Context, sealer *auth.Sealer) error {
	store, err := auth.OpenStore(projectCfg.UsersDB, sealer, appLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		ui.PrintInfo(fmt.Sprintf("users database already has %d account(s)", n))
		return nil
	}

	password := initAdminPass
	if password == "" {
		if err := survey.AskOne(&survey.Password{Message: fmt.Sprintf("Password for %s:", initAdminUser)}, &password, survey.WithValidator(survey.MinLength(6))); err != nil {
			return err
		}
	}

	err = store.AddUser(ctx, initAdminUser, password, roles.Admin, nil)
	if errors.Is(err, auth.ErrUserExists) {
		return nil
	}
	if err != nil {
		return err
	}
	ui.PrintOK(fmt.Sprintf("admin account %q created", initAdminUser))
	return nil
}

// ensureGitignore adds private state files to .gitignore.
func ensureGitignore(paths ...string) error {
	const gitignorePath = ".gitignore"

	content, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .gitignore: %w", err)
	}

	present := map[string]bool{}
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var add []string
	for _, p := range paths {
		p = filepath.ToSlash(p)
		if p != "" && !present[p] {
			add = append(add, p)
			present[p] = true
		}
	}
	if len(add) == 0 {
		return nil
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open .gitignore: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# sysop private state\n")
	for _, p := range add {
		b.WriteString(p + "\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return nil
}
