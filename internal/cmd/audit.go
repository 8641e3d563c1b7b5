package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/bootstrap"
	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/internal/ui"
)

var (
	auditLimit int
	auditJSON  bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit records (admin only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		who, err := authenticate(cmd.Context(), app)
		if err != nil {
			return err
		}
		if !roles.Allows(who.Role, roles.Admin) {
			return fmt.Errorf("%w: audit log requires role %s", bootstrap.ErrPermissionDenied, roles.Admin)
		}

		log, err := app.OpenAudit()
		if err != nil {
			return err
		}
		entries, err := log.List(cmd.Context(), auditLimit)
		if err != nil {
			return err
		}

		if auditJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			keys := make([]string, 0, len(e.Params))
			for k := range e.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, k+"="+e.Params[k])
			}
			rows = append(rows, []string{
				e.Timestamp.Local().Format(time.DateTime), e.Level, e.Username, e.Intent,
				strings.Join(pairs, " "), firstLine(e.Result),
			})
		}
		ui.PrintTable([]string{"TIME", "LEVEL", "USER", "INTENT", "PARAMS", "RESULT"}, rows)
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "Number of records to show")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(auditCmd)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
