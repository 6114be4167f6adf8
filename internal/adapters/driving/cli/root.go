// Package cli provides the cobra command tree. Commands are thin:
// they parse flags, call a core service through its driving port, and
// render the result.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/parchment-labs/quarry/internal/logger"
)

// version is set from the build via Execute.
var version = "dev"

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Index documents and query them with retrieval-augmented answers",
	Long: `Quarry indexes local text documents into searchable chunks and answers
questions about them. Embedding and response providers are optional:
without credentials it still indexes, searches, and answers with local
fallbacks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" {
			return nil
		}
		return initContext()
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return closeContext()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.quarry/config.toml)")
}

// Execute runs the CLI with the given build version.
func Execute(buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	return rootCmd.Execute()
}
