package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parchment-labs/quarry/internal/core/domain"
)

var (
	searchDocID   string
	searchProject string
	searchLimit   int
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks indexed chunks against the query. Vector similarity is used when
embeddings are available, with keyword and storage-order fallbacks so a
non-empty corpus always yields results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchDocID, "doc", "d", "", "restrict to a single document ID")
	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "restrict to a project")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// buildQuery assembles the scoped query shared by search and ask.
func buildQuery(text, docID, projectID string, limit int) domain.SearchQuery {
	query := domain.SearchQuery{
		Text:  text,
		Scope: domain.ScopeCorpus,
		Limit: limit,
	}
	switch {
	case docID != "":
		query.Scope = domain.ScopeDocument
		query.DocumentID = docID
	case projectID != "":
		query.Scope = domain.ScopeProject
		query.ProjectID = projectID
	}
	return query
}

func runSearch(cmd *cobra.Command, args []string) error {
	ragCtx, err := searchService.Search(cmd.Context(),
		buildQuery(args[0], searchDocID, searchProject, searchLimit))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(ragCtx.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if ragCtx.Empty() {
		cmd.Println("No results found.")
		return nil
	}

	for i, r := range ragCtx.Results {
		title := r.Title
		if title == "" {
			title = r.DocumentID
		}
		cmd.Printf("[%d] %s (%.2f)\n", i+1, title, r.Similarity)
		cmd.Printf("    %s\n\n", snippet(r.Content, 160))
	}
	return nil
}

// snippet truncates content to a single display line.
func snippet(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}
