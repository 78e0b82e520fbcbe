package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/curriculum"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Browse, import and export the level catalogue",
}

var levelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List published levels (optionally filtered by tier)",
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, _ := cmd.Flags().GetInt("tier")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		version, err := a.store.LevelRepo().CatalogueVersion(ctx)
		if err != nil {
			return err
		}
		levels, err := a.store.LevelRepo().ListLevels(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(levels) == 0 {
			fmt.Fprintln(out, "No catalogue published. Run: wordsmith migrate")
			return nil
		}

		t := newTable("ID", "Tier", "Activity", "Prompt", "Pass", "Concepts", "Flags")
		shown := 0
		for _, l := range levels {
			if tier != 0 && l.Tier != tier {
				continue
			}
			var flags []string
			if l.Milestone {
				flags = append(flags, "milestone")
			}
			if l.TierFinale {
				flags = append(flags, "tier finale")
			}
			if l.ProgrammeFinale {
				flags = append(flags, "finale")
			}
			t.Row(l.ID, strconv.Itoa(l.Tier), l.ActivityName, l.PromptTitle,
				fmt.Sprintf("%g%%", l.PassingThreshold),
				strings.Join(l.TargetConcepts, ", "),
				strings.Join(flags, ", "))
			shown++
		}
		if shown == 0 {
			return fmt.Errorf("no levels found for tier %d", tier)
		}

		lipgloss.Fprintln(out, titleStyle.Render("Catalogue "+version))
		lipgloss.Fprintln(out, t.String())
		lipgloss.Fprintln(out, hintStyle.Render(fmt.Sprintf("%d levels", shown)))
		return nil
	},
}

var levelsImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Validate a workbook and publish it as the level catalogue",
	Long: `Import a level catalogue from an Excel workbook.

The "levels" sheet needs a header row with the columns id, number,
activity_name, prompt_title, prompt_instructions, target_concepts,
rubric and passing_threshold; milestone is optional. The "meta" sheet
holds a "version" row with a semantic version. Publishing an older
version than the one in the database is refused.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		version, _ := cmd.Flags().GetString("version")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		cfg := curriculum.DefaultImportConfig()
		cfg.Version = version
		cat, res, err := curriculum.ImportXLSX(f, cfg)
		out := cmd.OutOrStdout()
		if res != nil {
			fmt.Fprintf(out, "Rows processed: %d, imported: %d, skipped: %d\n", res.TotalProcessed, res.Imported, res.Skipped)
			for _, e := range res.Errors {
				lipgloss.Fprintln(out, errorStyle.Render("  "+e))
			}
		}
		if err != nil {
			return err
		}
		if dryRun {
			lipgloss.Fprintln(out, successStyle.Render(fmt.Sprintf("Catalogue %s is valid (%d levels).", cat.Version, len(cat.Levels))))
			return nil
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := curriculum.Publish(cmd.Context(), a.store.LevelRepo(), cat); err != nil {
			var downgrade *curriculum.DowngradeError
			if errors.As(err, &downgrade) {
				return fmt.Errorf("%w\n\nBump the version in the meta sheet or pass --version", err)
			}
			return err
		}
		lipgloss.Fprintln(out, successStyle.Render(fmt.Sprintf("Published catalogue %s (%d levels).", cat.Version, len(cat.Levels))))
		return nil
	},
}

var levelsExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Write the published catalogue (or the built-in default) to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useDefault, _ := cmd.Flags().GetBool("default")

		var cat *curriculum.Catalogue
		if useDefault {
			cat = curriculum.Default()
		} else {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			version, err := a.store.LevelRepo().CatalogueVersion(ctx)
			if err != nil {
				return err
			}
			if version == "" {
				return fmt.Errorf("no catalogue published; use --default to export the built-in one")
			}
			levels, err := a.store.LevelRepo().ListLevels(ctx)
			if err != nil {
				return err
			}
			cat = &curriculum.Catalogue{Version: version, Levels: levels}
		}

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := curriculum.ExportXLSX(cat, f, curriculum.DefaultImportConfig()); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d levels (version %s) to %s\n", len(cat.Levels), cat.Version, args[0])
		return nil
	},
}

func init() {
	levelsListCmd.Flags().Int("tier", 0, "Only show levels in this tier (1-8)")
	levelsImportCmd.Flags().Bool("dry-run", false, "Validate the workbook without publishing")
	levelsImportCmd.Flags().String("version", "", "Catalogue version (overrides the meta sheet)")
	levelsExportCmd.Flags().Bool("default", false, "Export the built-in catalogue instead of the database")

	levelsCmd.AddCommand(levelsListCmd)
	levelsCmd.AddCommand(levelsImportCmd)
	levelsCmd.AddCommand(levelsExportCmd)
}
