package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect stored audit reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report id>",
	Short: "Render a stored report scored against the current issue state",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete <report id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportDelete,
}

func init() {
	reportCmd.AddCommand(reportListCmd, reportShowCmd, reportDeleteCmd)
	rootCmd.AddCommand(reportCmd)
}

// reportSummary is one line of `report list`.
type reportSummary struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Score     int                  `json:"score"`
	Counts    map[types.Status]int `json:"counts"`
}

func runReportList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	reports, err := e.store.ListReports(ctx)
	if err != nil {
		return err
	}

	summaries := make([]reportSummary, 0, len(reports))
	for _, r := range reports {
		score, err := audit.ScoreReport(ctx, e.tracker, r)
		if err != nil {
			return fmt.Errorf("scoring report %s: %w", r.ID, err)
		}
		counts := make(map[types.Status]int, 4)
		for _, s := range types.Statuses {
			counts[s] = r.CountStatus(s)
		}
		summaries = append(summaries, reportSummary{ID: r.ID, CreatedAt: r.CreatedAt, Score: score, Counts: counts})
	}

	w := cmd.OutOrStdout()
	if appConfig.OutputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No reports stored.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Created", "Score", "Pass", "Fail", "Skip", "Ignore"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	for _, s := range summaries {
		table.Append([]string{
			s.ID,
			s.CreatedAt.Format(time.DateTime),
			fmt.Sprint(s.Score),
			fmt.Sprint(s.Counts[types.StatusPass]),
			fmt.Sprint(s.Counts[types.StatusFail]),
			fmt.Sprint(s.Counts[types.StatusSkip]),
			fmt.Sprint(s.Counts[types.StatusIgnore]),
		})
	}
	table.Render()
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	report, err := e.store.LoadReport(ctx, args[0])
	if err != nil {
		return err
	}
	return e.render(ctx, cmd.OutOrStdout(), report)
}

func runReportDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.store.DeleteReport(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted report %s\n", args[0])
	return nil
}
