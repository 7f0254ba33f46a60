package cli

import (
	"github.com/spf13/cobra"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/replace"
)

var (
	replaceLoadFile string
	replaceSaveFile string
)

// newReplaceCommand creates the replace command.
func newReplaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace special symbols in a translated questions file",
		Long: "Replace cleans a translated questions file: underscores and braces left\n" +
			"over from SPARQL templates and HTML character entities are replaced by\n" +
			"the characters they stand for.",
		RunE: runReplace,
	}

	cmd.Flags().StringVar(&replaceLoadFile, "load-file-name", "", "questions file to clean")
	cmd.Flags().StringVar(&replaceSaveFile, "save-file-name", "", "file to write the cleaned questions to")
	cmd.MarkFlagRequired("load-file-name")
	cmd.MarkFlagRequired("save-file-name")

	return cmd
}

func runReplace(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	service, err := newReplaceService(cliCtx)
	if err != nil {
		return err
	}
	result, err := service.Run(cmd.Context(), &replace.Input{
		LoadFileName: replaceLoadFile,
		SaveFileName: replaceSaveFile,
	})
	if err != nil {
		return err
	}

	return PrintResult(cmd, result)
}
