package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/assessment"
	"github.com/abhisek/wordsmith/internal/curriculum"
	"github.com/abhisek/wordsmith/internal/writing"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess a piece of writing from the command line",
	Long: `Submit writing for assessment.

With --pupil and --level the attempt is stored and, when it passes,
advances the pupil exactly as the API does. With --demo nothing is
stored. The text comes from --text, --file or standard input.`,
	Example: `  wordsmith assess --pupil p1 --level wl-01 --text "The dog runs. The cat sleeps."
  echo "The big dog runs fast." | wordsmith assess --demo --level-number 4`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().String("pupil", "", "Pupil ID")
	assessCmd.Flags().String("level", "", "Level ID, e.g. wl-01")
	assessCmd.Flags().String("attempt", "", "Attempt ID (default: generated)")
	assessCmd.Flags().String("text", "", "Writing to assess")
	assessCmd.Flags().String("file", "", "Read the writing from a file")
	assessCmd.Flags().Bool("demo", false, "Assess without a pupil or stored attempt")
	assessCmd.Flags().Int("level-number", 0, "Level number for demo assessments")
	assessCmd.Flags().String("provider", "", "LLM provider: anthropic, openai, gemini, openrouter, mock")
	assessCmd.Flags().Bool("json", false, "Print the assessment as JSON")
}

func runAssess(cmd *cobra.Command, args []string) error {
	demo, _ := cmd.Flags().GetBool("demo")
	asJSON, _ := cmd.Flags().GetBool("json")

	text, err := readText(cmd)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if _, err := curriculum.EnsurePublished(ctx, a.store.LevelRepo(), a.logger); err != nil {
		return err
	}
	svc, err := a.writingService(ctx, nil)
	if err != nil {
		return err
	}

	var (
		result  *assessment.ValidatedAssessment
		attempt *writing.Attempt
		pending bool
	)
	if demo {
		number, _ := cmd.Flags().GetInt("level-number")
		result, err = svc.SubmitDemo(ctx, writing.DemoSubmission{Text: text, LevelNumber: number})
		if err != nil {
			return err
		}
	} else {
		pupil, _ := cmd.Flags().GetString("pupil")
		level, _ := cmd.Flags().GetString("level")
		attemptID, _ := cmd.Flags().GetString("attempt")
		if attemptID == "" {
			attemptID = uuid.NewString()
		}
		res, err := svc.SubmitCurriculum(ctx, writing.CurriculumSubmission{
			AttemptID: attemptID,
			PupilID:   pupil,
			LevelID:   level,
			Text:      text,
		})
		if err != nil {
			return err
		}
		result, attempt, pending = res.Assessment, &res.Attempt, res.ProgressionPending
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"assessment": result, "attempt": attempt, "progression_pending": pending})
	}

	verdict := errorStyle.Render("not yet")
	if result.Passed {
		verdict = successStyle.Render("passed")
	}
	lipgloss.Fprintln(out, titleStyle.Render(result.Badge))
	lipgloss.Fprintln(out, field("Score", fmt.Sprintf("%g / %g (%.0f%%)", result.Score, result.Total, result.Percentage)))
	lipgloss.Fprintln(out, field("Result", verdict+"  "+hintStyle.Render(result.PerformanceBand)))
	if attempt != nil {
		lipgloss.Fprintln(out, field("Attempt", attempt.ID))
		if attempt.NextLevelID != "" {
			lipgloss.Fprintln(out, field("Unlocked", attempt.NextLevelID))
		}
	}
	if pending {
		lipgloss.Fprintln(out, hintStyle.Render("Progress could not be saved yet; run: wordsmith reconcile"))
	}
	lipgloss.Fprintln(out)
	lipgloss.Fprintln(out, result.Feedback.MainMessage)
	lipgloss.Fprintln(out, field("Well done", result.Feedback.SpecificPraise))
	lipgloss.Fprintln(out, field("Next step", result.Feedback.GrowthArea))
	lipgloss.Fprintln(out, hintStyle.Render(result.Feedback.Encouragement))
	return nil
}

func readText(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	path, _ := cmd.Flags().GetString("file")
	switch {
	case text != "" && path != "":
		return "", fmt.Errorf("use --text or --file, not both")
	case text != "":
		return text, nil
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(b)) == "" {
			return "", fmt.Errorf("no writing given: pass --text, --file or pipe it on stdin")
		}
		return string(b), nil
	}
}
