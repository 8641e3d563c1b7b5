package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/bootstrap"
	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/nlu"
	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/internal/ui"
)

var (
	runYes    bool
	runDryRun bool
)

var runCmd = &cobra.Command{
	Use:   "run <text...>",
	Short: "Understand a plain-language request and execute it",
	Long: `Resolve the request to a catalogue intent, ask for any missing parameters,
check your role and execute the command, streaming its output.

Admin-level intents ask for confirmation unless --yes is given.`,
	Example: `  sysop run ping 8.8.8.8
  sysop run перезапусти службу nginx
  sysop run --dry-run open port 8080`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		text := strings.Join(args, " ")
		res := app.Parser.Parse(text)
		if !res.Matched {
			ui.PrintWarn("could not understand the request")
			for _, c := range app.Parser.Matcher().Candidates(text, 3) {
				fmt.Println(ui.Indent(fmt.Sprintf("did you mean %q (%s)?", c.Phrase, c.Intent)))
			}
			return fmt.Errorf("no intent matched %q", text)
		}
		appLog.Debug("resolved request", zap.String("intent", res.Intent), zap.Float64("score", res.Score))
		return executeIntent(cmd.Context(), app, res.Intent, res.Params)
	},
}

var execParams []string

var execCmd = &cobra.Command{
	Use:   "exec <intent>",
	Short: "Execute an intent by id",
	Example: `  sysop exec network.ping -p host=8.8.8.8 -p count=2
  sysop exec disk.usage`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParamFlags(execParams)
		if err != nil {
			return err
		}
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		return executeIntent(cmd.Context(), app, args[0], params)
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick an intent from menus and execute it",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		intent, err := pickIntent(app)
		if err != nil {
			if isPromptAbort(err) {
				return nil
			}
			return err
		}
		return executeIntent(cmd.Context(), app, intent, map[string]string{})
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, execCmd, menuCmd} {
		c.Flags().BoolVarP(&runYes, "yes", "y", false, "Do not ask for confirmation")
		c.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the command instead of running it")
	}
	execCmd.Flags().StringArrayVarP(&execParams, "param", "p", nil, "Parameter as name=value (repeatable)")
	rootCmd.AddCommand(runCmd, execCmd, menuCmd)
}

// executeIntent fills missing parameters interactively, authenticates and
// runs the intent with auditing.
func executeIntent(ctx context.Context, app *bootstrap.App, intent string, params map[string]string) error {
	def, ok := app.Catalogue.Get(intent)
	if !ok {
		return fmt.Errorf("%w '%s'", catalogue.ErrUnknownIntent, intent)
	}

	for _, p := range nlu.Missing(def, params) {
		v, err := askParam(p)
		if err != nil {
			return err
		}
		params[p.Name] = v
	}

	line, err := app.Catalogue.Render(def.ID, app.Runner.OSTag(), params)
	if err != nil && !errors.Is(err, catalogue.ErrUnknownOSTemplate) {
		return err
	}
	if runDryRun {
		if err != nil {
			return err
		}
		fmt.Println(line)
		return nil
	}

	who, err := authenticate(ctx, app)
	if err != nil {
		return err
	}
	if _, err := app.OpenAudit(); err != nil {
		ui.PrintWarn(fmt.Sprintf("Audit log unavailable: %v", err))
	}

	ui.PrintInfo(def.ID)
	if line != "" {
		fmt.Println(ui.Indent(ui.Command(line)))
	}

	if roles.RequiredRole(def) == roles.Admin && !runYes {
		confirm := promptui.Prompt{Label: "Run this command", IsConfirm: true}
		if _, err := confirm.Run(); err != nil {
			ui.PrintInfo("Cancelled")
			return nil
		}
	}

	if err := app.Run(ctx, who, def.ID, params, printChunk); err != nil {
		return err
	}
	ui.PrintDone(def.ID)
	return nil
}

// pickIntent walks namespace then intent selection menus.
func pickIntent(app *bootstrap.App) (string, error) {
	byNS := map[string][]string{}
	for _, def := range app.Catalogue.Intents() {
		ns := def.Namespace()
		byNS[ns] = append(byNS[ns], def.ID)
	}
	namespaces := make([]string, 0, len(byNS))
	for ns := range byNS {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	nsSel := promptui.Select{Label: "Area", Items: namespaces, Templates: selectTemplates, Size: 10}
	_, ns, err := nsSel.Run()
	if err != nil {
		return "", err
	}

	ids := byNS[ns]
	intentSel := promptui.Select{
		Label:     "Action",
		Items:     ids,
		Templates: selectTemplates,
		Size:      12,
		Searcher: func(input string, index int) bool {
			return strings.Contains(ids[index], strings.ToLower(input))
		},
	}
	_, id, err := intentSel.Run()
	return id, err
}
