package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/internal/ui"
)

var intentsCmd = &cobra.Command{
	Use:   "intents [search]",
	Short: "List catalogue intents",
	Long:  `List the intents of the active catalogue. An optional search text filters by id and description, with fuzzy matching on the id.`,
	Example: `  sysop intents
  sysop intents firewall
  sysop intents ntf`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		defs := catalogue.Search(app.Catalogue.Intents(), query)
		if len(defs) == 0 {
			ui.PrintWarn("No intents found")
			return nil
		}

		rows := make([][]string, 0, len(defs))
		for _, def := range defs {
			rows = append(rows, []string{def.ID, string(roles.RequiredRole(def)), strings.Join(def.OSTags(), ","), def.Description})
		}
		ui.PrintTable([]string{"INTENT", "ROLE", "OS", "DESCRIPTION"}, rows)
		appLog.Debug("listed intents")
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <intent>",
	Short: "Show one intent definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		def, ok := app.Catalogue.Get(args[0])
		if !ok {
			if near, found := catalogue.Closest(app.Catalogue.Intents(), args[0]); found {
				return fmt.Errorf("%w '%s' (did you mean '%s'?)", catalogue.ErrUnknownIntent, args[0], near)
			}
			return fmt.Errorf("%w '%s'", catalogue.ErrUnknownIntent, args[0])
		}

		ui.PrintTitle(def.ID, def.Description)
		fmt.Println(ui.Indent("Role: " + string(roles.RequiredRole(def))))
		fmt.Println(ui.Indent("Phrases: " + strings.Join(def.Phrases, " | ")))
		if len(def.Params) > 0 {
			fmt.Println(ui.Indent("Parameters:"))
			for _, p := range def.Params {
				line := fmt.Sprintf("%s (%s", p.Name, p.Kind)
				if p.Required {
					line += ", required"
				}
				if p.Default != nil {
					line += fmt.Sprintf(", default %q", *p.Default)
				}
				if len(p.Choices) > 0 {
					line += ", one of " + strings.Join(p.Choices, "/")
				}
				fmt.Println(ui.Indent("  " + line + ")"))
			}
		}
		fmt.Println(ui.Indent("Templates:"))
		for _, tmpl := range def.Templates {
			fmt.Println(ui.Indent(fmt.Sprintf("  %-6s %s", tmpl.OSTag, tmpl.Command)))
		}
		return nil
	},
}

var resolveExplain bool
var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <text...>",
	Short: "Show which intent and parameters a request maps to",
	Long:  `Parse a plain-language request without executing anything. --explain also lists the closest competing phrases.`,
	Example: `  sysop resolve ping 8.8.8.8
  sysop resolve --explain "открой порт 8080"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		text := strings.Join(args, " ")
		res := app.Parser.Parse(text)

		if resolveJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if !res.Matched {
			ui.PrintWarn("could not understand the request")
		} else {
			ui.PrintOK(fmt.Sprintf("%s (phrase %q, score %.1f)", res.Intent, res.Phrase, res.Score))
			for _, k := range sortedKeys(res.Params) {
				fmt.Println(ui.Indent(fmt.Sprintf("%s = %s", k, res.Params[k])))
			}
			if cmdLine, err := app.Catalogue.Render(res.Intent, app.Runner.OSTag(), res.Params); err == nil {
				fmt.Println(ui.Indent(ui.Command(cmdLine)))
			} else {
				fmt.Println(ui.Indent(err.Error()))
			}
		}

		if resolveExplain || !res.Matched {
			fmt.Println()
			fmt.Println("Closest phrases:")
			for _, c := range app.Parser.Matcher().Candidates(text, 5) {
				fmt.Println(ui.Indent(fmt.Sprintf("%5.1f  %-28q %s", c.Score, c.Phrase, c.Intent)))
			}
		}
		return nil
	},
}

var (
	renderOS     string
	renderParams []string
)

var renderCmd = &cobra.Command{
	Use:   "render <intent>",
	Short: "Print the concrete command for an intent without running it",
	Example: `  sysop render network.ping -p host=8.8.8.8
  sysop render services.restart -p name=nginx --os win`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		params, err := parseParamFlags(renderParams)
		if err != nil {
			return err
		}
		osTag := renderOS
		if osTag == "" {
			osTag = app.Runner.OSTag()
		}
		line, err := app.Catalogue.Render(args[0], osTag, params)
		if err != nil {
			return err
		}
		fmt.Println(line)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveExplain, "explain", false, "List the closest competing phrases")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Output in JSON format")
	renderCmd.Flags().StringVar(&renderOS, "os", "", "OS tag to render for (default: configured os_tag)")
	renderCmd.Flags().StringArrayVarP(&renderParams, "param", "p", nil, "Parameter as name=value (repeatable)")
	rootCmd.AddCommand(intentsCmd, showCmd, resolveCmd, renderCmd)
}
