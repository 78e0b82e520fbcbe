package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Apply progression and mastery updates left pending by failed writes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		// The oracle is never called here; a mock keeps reconcile usable
		// without provider credentials.
		a.cfg.LLM.Provider = "mock"
		svc, err := a.writingService(cmd.Context(), nil)
		if err != nil {
			return err
		}

		rep, err := svc.ReconcilePending(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "progress: %d, mastery: %d, next level: %d, failed: %d\n", rep.Progress, rep.Mastery, rep.NextLevel, rep.Failed)
		if rep.Failed > 0 {
			return fmt.Errorf("%d attempts could not be reconciled", rep.Failed)
		}
		return nil
	},
}
