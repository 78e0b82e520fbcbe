package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/wordsmith/internal/llm"
	"github.com/abhisek/wordsmith/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded assessment oracle calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent oracle calls",
	Example: `  wordsmith llm list -n 50 --purpose writing-assessment
  wordsmith llm list --attempt 6f1c0a9e-...`,
	RunE: runLLMList,
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one oracle call",
	Args:  cobra.ExactArgs(1),
	RunE:  runLLMView,
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE:  runLLMStats,
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (writing-assessment or writing-demo)")
	llmListCmd.Flags().String("attempt", "", "Show only calls made for this attempt ID")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}

func runLLMList(cmd *cobra.Command, args []string) error {
	opts := store.QueryOpts{}
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Purpose, _ = cmd.Flags().GetString("purpose")
	opts.AttemptID, _ = cmd.Flags().GetString("attempt")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.store.EventRepo().QueryLLMEvents(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		lipgloss.Fprintln(out, hintStyle.Render("No oracle calls recorded."))
		return nil
	}

	t := newTable("ID", "Time", "Purpose", "Attempt", "Model", "In", "Out", "Ms", "OK")
	for _, e := range list {
		t.Row(
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Local().Format(timeLayout),
			e.Purpose,
			truncate(e.AttemptID, 8),
			truncate(e.Model, 28),
			strconv.Itoa(e.InputTokens),
			strconv.Itoa(e.OutputTokens),
			strconv.FormatInt(e.LatencyMs, 10),
			check(e.Success),
		)
	}
	lipgloss.Fprintln(out, t.String())
	return nil
}

func runLLMView(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ID %q: %w", args[0], err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.store.EventRepo().GetLLMEvent(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if e == nil {
		return fmt.Errorf("event %d not found", id)
	}

	out := cmd.OutOrStdout()
	lipgloss.Fprintln(out, titleStyle.Render(fmt.Sprintf("Oracle call #%d", e.ID)))
	lipgloss.Fprintln(out, field("Time", e.Timestamp.Local().Format(timeLayout)))
	lipgloss.Fprintln(out, field("Provider", e.Provider+" / "+e.Model))
	lipgloss.Fprintln(out, field("Purpose", e.Purpose))
	if e.AttemptID != "" {
		lipgloss.Fprintln(out, field("Attempt", e.AttemptID))
	}
	lipgloss.Fprintln(out, field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)))
	lipgloss.Fprintln(out, field("Latency", fmt.Sprintf("%dms", e.LatencyMs)))
	lipgloss.Fprintln(out, field("Result", check(e.Success)))
	if e.ErrorMessage != "" {
		lipgloss.Fprintln(out, field("Error", errorStyle.Render(e.ErrorMessage)))
	}

	for _, part := range []struct{ title, body string }{
		{"Request", e.RequestBody},
		{"Response", e.ResponseBody},
	} {
		lipgloss.Fprintln(out)
		lipgloss.Fprintln(out, headerStyle.Render(part.title))
		if part.body == "" {
			lipgloss.Fprintln(out, hintStyle.Render("(not captured)"))
			continue
		}
		lipgloss.Fprintln(out, part.body)
	}
	return nil
}

func runLLMStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	events := a.store.EventRepo()
	byPurpose, err := events.LLMUsageByPurpose(ctx)
	if err != nil {
		return fmt.Errorf("query usage: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(byPurpose) == 0 {
		lipgloss.Fprintln(out, hintStyle.Render("No oracle usage recorded yet."))
		return nil
	}

	var calls, failed, in, outTok int
	t := newTable("Purpose", "Calls", "Failed", "Input", "Output", "Avg Ms")
	for _, u := range byPurpose {
		t.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.Failures),
			strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs, 10))
		calls += u.Calls
		failed += u.Failures
		in += u.InputTokens
		outTok += u.OutputTokens
	}
	t.Row("total", strconv.Itoa(calls), strconv.Itoa(failed), strconv.Itoa(in), strconv.Itoa(outTok), "")
	lipgloss.Fprintln(out, titleStyle.Render("Usage by purpose"))
	lipgloss.Fprintln(out, t.String())

	byModel, err := events.LLMUsageByModel(ctx)
	if err != nil {
		return fmt.Errorf("query model usage: %w", err)
	}
	if len(byModel) == 0 {
		return nil
	}

	var total float64
	var unpriced []string
	ct := newTable("Model", "Calls", "Input", "Output", "Cost")
	for _, u := range byModel {
		cost := "?"
		if p := llm.LookupCost(u.Model); p != nil {
			c := p.Cost(u.InputTokens, u.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		ct.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), cost)
	}
	label := "total"
	if len(unpriced) > 0 {
		label = "total (partial)"
	}
	ct.Row(label, "", "", "", formatCost(total))

	lipgloss.Fprintln(out)
	lipgloss.Fprintln(out, titleStyle.Render("Estimated cost (USD)"))
	lipgloss.Fprintln(out, ct.String())
	if len(unpriced) > 0 {
		lipgloss.Fprintln(out, hintStyle.Render("Pricing unavailable for: "+strings.Join(unpriced, ", ")))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
