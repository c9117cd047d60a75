package cli

import (
	"encoding/json"
	"fmt"

	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	issuesCheckFlag   string
	issuesStatusFlag  string
	issuesMessageFlag string
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List and triage tracked issues",
}

var issuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked issues",
	Args:  cobra.NoArgs,
	RunE:  runIssuesList,
}

func init() {
	issuesListCmd.Flags().StringVar(&issuesCheckFlag, "check", "", "only issues of this check")
	issuesListCmd.Flags().StringVar(&issuesStatusFlag, "status", "", "only issues with this status: open, fixed, ignored")
	issuesCmd.AddCommand(issuesListCmd)

	for _, t := range []struct {
		use, short string
		status     types.IssueStatus
	}{
		{"fix", "Mark an issue fixed", types.IssueFixed},
		{"ignore", "Ignore an issue; later audits keep it ignored", types.IssueIgnored},
		{"reopen", "Reopen a fixed or ignored issue", types.IssueOpen},
	} {
		c := &cobra.Command{
			Use:   t.use + " <issue key>",
			Short: t.short,
			Args:  cobra.ExactArgs(1),
			RunE:  setIssueStatus(t.status),
		}
		c.Flags().StringVarP(&issuesMessageFlag, "message", "m", "", "revision message")
		issuesCmd.AddCommand(c)
	}

	rootCmd.AddCommand(issuesCmd)
}

func runIssuesList(cmd *cobra.Command, args []string) error {
	filter := issue.Filter{CheckID: issuesCheckFlag}
	if issuesStatusFlag != "" {
		status, err := types.ParseIssueStatus(issuesStatusFlag)
		if err != nil {
			return err
		}
		filter.Status = status
	}

	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	issues, err := e.tracker.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if appConfig.OutputFormat == "json" {
		if issues == nil {
			issues = []types.Issue{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(issues)
	}
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Status", "Title", "Updated"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	for _, i := range issues {
		table.Append([]string{i.Key, colorIssueStatus(i.Status), i.Title, i.UpdatedAt.Format("2006-01-02 15:04")})
	}
	table.Render()
	return nil
}

func setIssueStatus(status types.IssueStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(false)
		if err != nil {
			return err
		}
		defer e.Close()

		i, err := e.tracker.SetStatus(cmd.Context(), args[0], status, issuesMessageFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", i.Key, i.Status)
		return nil
	}
}

func colorIssueStatus(s types.IssueStatus) string {
	switch s {
	case types.IssueOpen:
		return color.RedString(string(s))
	case types.IssueFixed:
		return color.GreenString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
