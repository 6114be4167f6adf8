package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List indexed documents",
	RunE:  runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed yet. Run 'quarry index <path>' to get started.")
		return nil
	}

	for _, doc := range docs {
		count, err := documentService.ChunkCount(cmd.Context(), doc.ID)
		if err != nil {
			return fmt.Errorf("counting chunks for %s: %w", doc.ID, err)
		}

		line := fmt.Sprintf("%s  %s  (%d chunk(s))", doc.ID, doc.Title, count)
		if doc.ProjectID != "" {
			line += "  [project: " + doc.ProjectID + "]"
		}
		cmd.Println(line)
	}
	return nil
}
