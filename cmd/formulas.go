package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/formula"
	"github.com/abhisek/wordsmith/internal/lexicon"
)

var formulasCmd = &cobra.Command{
	Use:   "formulas",
	Short: "Print the scaffolded sentence formulas for a lesson (no database)",
	Example: `  wordsmith formulas --lesson 12 --subject dog
  wordsmith formulas --lesson 18 --subject Lucy --category person --json`,
	RunE: runFormulas,
}

func init() {
	formulasCmd.Flags().Int("lesson", 0, "Lesson number (required)")
	formulasCmd.Flags().String("subject", "", "Sentence subject, e.g. dog (required)")
	formulasCmd.Flags().String("category", "", "Subject category: person, animal, place, thing (default: looked up)")
	formulasCmd.Flags().Bool("json", false, "Print JSON instead of a table")
	_ = formulasCmd.MarkFlagRequired("lesson")
	_ = formulasCmd.MarkFlagRequired("subject")
}

func runFormulas(cmd *cobra.Command, args []string) error {
	lesson, _ := cmd.Flags().GetInt("lesson")
	subject, _ := cmd.Flags().GetString("subject")
	categoryVal, _ := cmd.Flags().GetString("category")
	asJSON, _ := cmd.Flags().GetBool("json")

	var category lexicon.Category
	if categoryVal != "" {
		c, ok := lexicon.ParseCategory(categoryVal)
		if !ok {
			return fmt.Errorf("invalid category %q: must be person, animal, place or thing", categoryVal)
		}
		category = c
	}

	fs, err := formula.New(nil).Generate(lesson, subject, category)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(fs)
	}

	t := newTable("#", "Structure", "Example", "New")
	for _, f := range fs {
		added := make([]string, len(f.NewElements))
		for i, c := range f.NewElements {
			added[i] = string(c)
		}
		t.Row(strconv.Itoa(f.Number), f.StructureString(), f.LabelledExample(), strings.Join(added, ", "))
	}

	lipgloss.Fprintln(out, titleStyle.Render(fmt.Sprintf("Lesson %d · %s", lesson, strings.TrimSpace(subject))))
	lipgloss.Fprintln(out, t.String())
	lipgloss.Fprintln(out, hintStyle.Render(fmt.Sprintf("%d formulas", len(fs))))
	return nil
}
