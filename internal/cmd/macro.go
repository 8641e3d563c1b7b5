package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/audit"
	"github.com/DevSymphony/sysop/internal/macro"
	"github.com/DevSymphony/sysop/internal/ui"
)

var macroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Replay or inspect recorded macros",
	Long:  `Macros are recorded in 'sysop shell' with :record / :save. Bare file names are looked up in macro_dir.`,
}

var macroPlayCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Replay a macro as the current user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := macro.Load(macroFile(args[0]))
		if err != nil {
			return err
		}

		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		who, err := authenticate(cmd.Context(), app)
		if err != nil {
			return err
		}
		if _, err := app.OpenAudit(); err != nil {
			ui.PrintWarn(fmt.Sprintf("Audit log unavailable: %v", err))
		}

		seq := app.NewSequencer(who, printChunk)
		if err := seq.Play(cmd.Context(), m); err != nil {
			return err
		}
		ui.PrintDone(fmt.Sprintf("played %d entries", len(m)))
		return nil
	},
}

var macroShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "List the entries of a macro",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := macro.Load(macroFile(args[0]))
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(m))
		for i, e := range m {
			masked := audit.MaskParams(e.Params)
			keys := make([]string, 0, len(masked))
			for k := range masked {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, k+"="+masked[k])
			}
			ts := time.Unix(0, int64(e.Timestamp*float64(time.Second))).Local().Format(time.DateTime)
			rows = append(rows, []string{fmt.Sprint(i + 1), ts, e.Intent, strings.Join(pairs, " ")})
		}
		ui.PrintTable([]string{"#", "RECORDED", "INTENT", "PARAMS"}, rows)
		return nil
	},
}

func init() {
	macroCmd.AddCommand(macroPlayCmd, macroShowCmd)
	rootCmd.AddCommand(macroCmd)
}

func macroFile(name string) string {
	if filepath.Base(name) == name {
		return filepath.Join(projectCfg.MacroDir, name)
	}
	return name
}
