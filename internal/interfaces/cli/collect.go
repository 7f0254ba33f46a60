package cli

import (
	"github.com/spf13/cobra"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/collect"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
)

var collectSplit string

// newCollectCommand creates the collect command.
func newCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the WikiData entities and properties of a dataset split",
		Long: "Collect scans the SPARQL formulation of every question in a split and\n" +
			"writes the question-to-symbols map that the label and mask tasks build on.",
		RunE: runCollect,
	}

	cmd.Flags().StringVar(&collectSplit, "split", "", "dataset split (train, test)")
	cmd.MarkFlagRequired("split")

	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	split, err := dataset.ParseSplit(collectSplit)
	if err != nil {
		return err
	}

	service, err := newCollectService(cliCtx)
	if err != nil {
		return err
	}
	result, err := service.Run(cmd.Context(), &collect.Input{Split: split})
	if err != nil {
		return err
	}

	return PrintResult(cmd, result)
}
