package cli

import (
	"github.com/spf13/cobra"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/label"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/config"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
)

var (
	labelSplit    string
	labelLanguage string
	labelPartSize int
)

// newLabelCommand creates the label command.
func newLabelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Retrieve natural language labels for collected symbols",
		Long: "Label queries the WikiData SPARQL endpoint for the labels and aliases of\n" +
			"every collected entity and property. Runs are resumable: symbols already\n" +
			"in the label store are skipped, and each part is persisted on retrieval.",
		RunE: runLabel,
	}

	cmd.Flags().StringVar(&labelSplit, "split", "", "dataset split (train, test)")
	cmd.Flags().StringVar(&labelLanguage, "language", "", "label language (en, nl)")
	cmd.Flags().IntVar(&labelPartSize, "part-size", 0, "symbols per SPARQL query (default from config)")
	cmd.MarkFlagRequired("split")
	cmd.MarkFlagRequired("language")

	return cmd
}

func runLabel(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	split, err := dataset.ParseSplit(labelSplit)
	if err != nil {
		return err
	}
	lang, err := dataset.ParseLanguage(labelLanguage)
	if err != nil {
		return err
	}
	partSize := cliCtx.Config.Pipeline.PartSize
	if cmd.Flags().Changed("part-size") {
		partSize = labelPartSize
	}

	stack, err := newLabelStack(cmd.Context(), cliCtx, split, lang)
	if err != nil {
		return err
	}
	defer stack.close()

	// Label runs are long. Politeness changes in the config file take effect
	// mid-run, so a throttled endpoint can be accommodated without starting
	// over.
	if cliCtx.ConfigPath != "" {
		config.Watch(cliCtx.ConfigPath, func(cfg *config.Config) {
			stack.client.SetPoliteness(cfg.Wikidata.QueryInterval, cfg.Wikidata.RetryWait)
		})
	}

	result, err := stack.service.Run(cmd.Context(), &label.Input{
		Split:    split,
		Language: lang,
		PartSize: partSize,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, result)
}
