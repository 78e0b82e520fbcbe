package cmd

import (
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/curriculum"
)

// version is set via -ldflags "-X github.com/abhisek/wordsmith/cmd.version=...".
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and the built-in catalogue version",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, field("wordsmith", version))
		lipgloss.Fprintln(out, field("catalogue", curriculum.DefaultVersion))
	},
}
