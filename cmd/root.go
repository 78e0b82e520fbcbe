package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wordsmith",
	Short: "Scaffolded writing practice with oracle-scored assessment",
	Long: `Wordsmith serves a 40-level writing curriculum for young writers.

Pupils build sentences from grammar formulas, submit their writing and
get rubric-based feedback from an LLM assessor. Passing a level unlocks
the next one; every assessment also updates per-concept mastery.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./wordsmith.yaml or $XDG_CONFIG_HOME/wordsmith/wordsmith.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides WORDSMITH_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(formulasCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
