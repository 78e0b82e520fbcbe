package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/curriculum"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and publish the default catalogue if none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the store applies pending migrations.
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		names, err := a.store.AppliedMigrations(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, n := range names {
			fmt.Fprintln(out, "applied", n)
		}

		published, err := curriculum.EnsurePublished(ctx, a.store.LevelRepo(), a.logger)
		if err != nil {
			return err
		}
		if published {
			fmt.Fprintf(out, "published default catalogue %s\n", curriculum.DefaultVersion)
		}
		return nil
	},
}
