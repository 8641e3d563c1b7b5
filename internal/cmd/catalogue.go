package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevSymphony/sysop/internal/bootstrap"
	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/internal/matcher"
	"github.com/DevSymphony/sysop/internal/ui"
)

var catalogueCmd = &cobra.Command{
	Use:     "catalogue",
	Aliases: []string{"catalog"},
	Short:   "Inspect and check the command catalogue",
}

var catalogueValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Load a catalogue file and report problems",
	Long: `Load the catalogue (default: the active one) and report load errors,
placeholders that are not declared parameters, unused parameters, intents
without phrases and phrases claimed by more than one intent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := bootstrap.CatalogueSource(projectCfg)
		if len(args) == 1 {
			src = catalogue.FileSource(args[0])
		}

		cat, err := catalogue.Open(src, appLog)
		if err != nil {
			return err
		}
		ui.PrintOK(fmt.Sprintf("%s: %d intents loaded", src.Name(), cat.Snapshot().Len()))

		_, collisions := matcher.BuildIndex(cat.Intents(), lemma.New(projectCfg.Lemmatizer, appLog))
		for _, w := range collisions {
			ui.PrintWarn(w.String())
		}

		errs := 0
		for _, issue := range cat.Lint() {
			if issue.Severity == catalogue.SeverityError {
				errs++
				ui.PrintError(issue.String())
			} else {
				ui.PrintWarn(issue.String())
			}
		}
		if errs > 0 {
			return fmt.Errorf("%d catalogue error(s)", errs)
		}
		ui.PrintDone("catalogue is valid")
		return nil
	},
}

var cataloguePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the active catalogue is loaded from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(bootstrap.CatalogueSource(projectCfg).Name())
	},
}

func init() {
	catalogueCmd.AddCommand(catalogueValidateCmd, cataloguePathCmd)
	rootCmd.AddCommand(catalogueCmd)
}
