package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	indexProject string
	indexWatch   bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index the text documents under a directory",
	Long: `Walks the directory, normalises every supported text file, and indexes
it into searchable chunks. Embeddings are computed in the background;
the command waits for them before exiting.

With --watch the command keeps running and re-indexes files as they
change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexProject, "project", "p", "", "assign indexed documents to a project")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep watching the directory for changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]

	if indexWatch {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Watching %s (ctrl-c to stop)\n", path)
		err := ingestService.WatchDirectory(ctx, path, indexProject)
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	count, err := ingestService.IngestDirectory(cmd.Context(), path, indexProject)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}

	cmd.Printf("Indexed %d document(s) from %s\n", count, path)
	return nil
}
