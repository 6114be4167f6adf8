package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeTags bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [document-id]",
	Short: "Generate a structured analysis of a document",
	Long: `Produces a summary, key points, and suggested tags for a document.
Requires a configured LLM provider; transient provider errors are
retried with backoff.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeTags, "tags", false, "only suggest classification tags")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	if analyzeTags {
		tags, err := analyzerService.SuggestTags(cmd.Context(), doc)
		if err != nil {
			return fmt.Errorf("suggesting tags: %w", err)
		}
		cmd.Println(strings.Join(tags, ", "))
		return nil
	}

	analysis, err := analyzerService.Analyze(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("analyzing document: %w", err)
	}

	cmd.Printf("%s\n\n", doc.Title)
	cmd.Println(analysis.Summary)
	if len(analysis.KeyPoints) > 0 {
		cmd.Println("\nKey points:")
		for _, point := range analysis.KeyPoints {
			cmd.Printf("  - %s\n", point)
		}
	}
	if len(analysis.Tags) > 0 {
		cmd.Printf("\nTags: %s\n", strings.Join(analysis.Tags, ", "))
	}
	if analysis.Error != "" {
		cmd.Printf("\nNote: %s\n", analysis.Error)
	}
	return nil
}
