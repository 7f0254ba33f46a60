package cli

import (
	"github.com/spf13/cobra"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/mask"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
)

var (
	maskSplit         string
	maskLanguage      string
	maskQuestionsFile string
	maskOutputFile    string
	maskWorkers       int
	maskThreshold     float64
)

// newMaskCommand creates the mask command.
func newMaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Mask label occurrences in questions and SPARQL answers",
		Long: "Mask runs every question-answer pair through the longest-common-substring\n" +
			"masking consumer: WikiData symbols whose labels overlap the question text\n" +
			"are replaced by numbered mask tokens in both the question and the answer.",
		RunE: runMask,
	}

	cmd.Flags().StringVar(&maskSplit, "split", "", "dataset split (train, test)")
	cmd.Flags().StringVar(&maskLanguage, "language", "", "question language (en, nl)")
	cmd.Flags().StringVar(&maskQuestionsFile, "questions-file", "", "translated questions file (default: derive questions from the raw split)")
	cmd.Flags().StringVar(&maskOutputFile, "output-file", "", "masked pairs file (default: <split>-<language>-masked.json)")
	cmd.Flags().IntVar(&maskWorkers, "workers", 0, "concurrent masking workers (default from config)")
	cmd.Flags().Float64Var(&maskThreshold, "threshold", 0, "minimum label coverage in [0, 1] (default from config)")
	cmd.MarkFlagRequired("split")
	cmd.MarkFlagRequired("language")

	return cmd
}

func runMask(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	split, err := dataset.ParseSplit(maskSplit)
	if err != nil {
		return err
	}
	lang, err := dataset.ParseLanguage(maskLanguage)
	if err != nil {
		return err
	}
	threshold := cliCtx.Config.Pipeline.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = maskThreshold
	}
	workers := cliCtx.Config.Pipeline.Concurrency
	if cmd.Flags().Changed("workers") {
		workers = maskWorkers
	}

	stack, err := newMaskStack(cmd.Context(), cliCtx, split, lang, threshold)
	if err != nil {
		return err
	}
	defer stack.close()

	result, err := stack.service.Run(cmd.Context(), &mask.Input{
		Split:         split,
		Language:      lang,
		QuestionsFile: maskQuestionsFile,
		OutputFile:    maskOutputFile,
		Workers:       workers,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, result)
}
