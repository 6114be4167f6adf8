package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

var (
	askDocID   string
	askProject string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves the chunks most relevant to the question and generates an
answer grounded in them. Without a configured LLM provider the answer
is assembled locally from the retrieved excerpts.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocID, "doc", "d", "", "restrict to a single document ID")
	askCmd.Flags().StringVarP(&askProject, "project", "p", "", "restrict to a project")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ragCtx, err := searchService.Search(cmd.Context(),
		buildQuery(args[0], askDocID, askProject, domain.DefaultSearchLimit))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := responderSvc.Respond(cmd.Context(), ragCtx)
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}

	cmd.Println(answer)
	return nil
}
