package cli

import (
	"github.com/spf13/cobra"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/finalise"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
)

var (
	finaliseSplit     string
	finaliseLanguage  string
	finaliseFraction  float64
	finaliseInputFile string
)

// newFinaliseCommand creates the finalise command.
func newFinaliseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finalise",
		Short: "Turn masked pairs into model-ready text files",
		Long: "Finalise normalises masked question-answer pairs into space-separated\n" +
			"tokens and writes one question file and one SPARQL file per partition.\n" +
			"The train split donates the head of its pairs to the validate partition.",
		RunE: runFinalise,
	}

	cmd.Flags().StringVar(&finaliseSplit, "split", "", "dataset split (train, test)")
	cmd.Flags().StringVar(&finaliseLanguage, "language", "", "question language (en, nl)")
	cmd.Flags().Float64Var(&finaliseFraction, "fraction-to-validate", 0, "fraction of train pairs for the validate partition (default from config)")
	cmd.Flags().StringVar(&finaliseInputFile, "input-file", "", "masked pairs file (default: <split>-<language>-masked.json)")
	cmd.MarkFlagRequired("split")
	cmd.MarkFlagRequired("language")

	return cmd
}

func runFinalise(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	split, err := dataset.ParseSplit(finaliseSplit)
	if err != nil {
		return err
	}
	lang, err := dataset.ParseLanguage(finaliseLanguage)
	if err != nil {
		return err
	}
	fraction := cliCtx.Config.Pipeline.FractionToValidate
	if cmd.Flags().Changed("fraction-to-validate") {
		fraction = finaliseFraction
	}

	service, err := newFinaliseService(cliCtx)
	if err != nil {
		return err
	}
	result, err := service.Run(cmd.Context(), &finalise.Input{
		Split:              split,
		Language:           lang,
		FractionToValidate: fraction,
		InputFile:          finaliseInputFile,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, result)
}
