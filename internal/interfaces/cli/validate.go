package cli

import (
	"github.com/spf13/cobra"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/validate"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

var (
	validateProposalFile  string
	validateReferenceFile string
)

// newValidateCommand creates the validate command.
func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a masked pairs file against a reference",
		Long: "Validate compares two masked question-answer files describing the same\n" +
			"split. Mask numbering may differ; the proposal is valid when its masks\n" +
			"align positionally with the reference in every question and answer.",
		RunE: runValidate,
	}

	cmd.Flags().StringVar(&validateProposalFile, "proposal-file", "", "masked pairs file to validate")
	cmd.Flags().StringVar(&validateReferenceFile, "reference-file", "", "masked pairs file serving as ground truth")
	cmd.MarkFlagRequired("proposal-file")
	cmd.MarkFlagRequired("reference-file")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	service, err := newValidateService(cliCtx)
	if err != nil {
		return err
	}
	result, err := service.Run(cmd.Context(), &validate.Input{
		ProposalFile:  validateProposalFile,
		ReferenceFile: validateReferenceFile,
	})
	if err != nil {
		return err
	}
	if err := PrintResult(cmd, result); err != nil {
		return err
	}

	// A mismatch exits non-zero so that scripted pipelines notice.
	if !result.Valid {
		return errors.New(errors.ErrCodeValidationMismatch, "masked pairs do not match the reference").
			WithDetailf("question_diffs=%d answer_diffs=%d", result.QuestionDiffs, result.AnswerDiffs)
	}
	PrintSuccess(cmd, "proposal matches the reference")
	return nil
}
