package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/mastery"
	"github.com/abhisek/wordsmith/internal/progression"
	"github.com/abhisek/wordsmith/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress <pupil-id>",
	Short: "Show a pupil's curriculum position and concept mastery",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	pupilID := args[0]

	p, err := progression.NewService(a.store.ProgressRepo(), a.store.LevelRepo(),
		progression.DefaultServiceConfig(), a.logger).Get(ctx, pupilID)
	if err != nil {
		return err
	}
	concepts, err := mastery.NewService(a.store.MasteryRepo(), a.cfg.Mastery.Window, a.logger).List(ctx, pupilID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	lipgloss.Fprintln(out, titleStyle.Render("Pupil "+pupilID))
	lipgloss.Fprintln(out, field("Current level", fmt.Sprintf("%d (%s)", p.CurrentLevel, p.CurrentLevelID)))
	lipgloss.Fprintln(out, field("Current tier", p.CurrentTier))
	lipgloss.Fprintln(out, field("Levels", bar(len(p.CompletedLevels), progression.MaxLevel, 40)))
	lipgloss.Fprintln(out, field("Tiers", bar(len(p.CompletedTiers), progression.MaxTier, 8)))
	if p.ProgrammeCompleted {
		lipgloss.Fprintln(out, field("Programme", successStyle.Render("completed")))
	}

	bands := make([]string, 0, 4)
	for _, b := range []string{store.BandEmerging, store.BandDeveloping, store.BandSecure, store.BandMastery} {
		bands = append(bands, fmt.Sprintf("%s %d", b, p.BandCounts[b]))
	}
	lipgloss.Fprintln(out, field("Bands", strings.Join(bands, " · ")))

	if len(concepts) == 0 {
		lipgloss.Fprintln(out, hintStyle.Render("\nNo assessed writing yet."))
		return nil
	}

	t := newTable("Concept", "Uses", "Accuracy", "Recent", "Trend")
	for _, c := range concepts {
		var recent strings.Builder
		for _, ok := range c.Recent {
			recent.WriteString(check(ok))
		}
		t.Row(c.Concept, strconv.Itoa(c.Uses), fmt.Sprintf("%.0f%%", c.Accuracy()*100), recent.String(), string(c.Trend))
	}
	lipgloss.Fprintln(out)
	lipgloss.Fprintln(out, t.String())
	return nil
}
