package output

import (
	"fmt"
	"io"

	"github.com/buemura/advaudit/pkg/types"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// TableFormatter renders the document as colored terminal tables.
type TableFormatter struct{}

func (f *TableFormatter) Format(w io.Writer, doc Document) error {
	fmt.Fprintf(w, "\nAudit %s  score %s\n", doc.Report.ID, colorScore(doc.Score))
	fmt.Fprintf(w, "  %s\n", formatSummary(doc))

	if rows := doc.Rows(types.StatusFail); len(rows) > 0 {
		fmt.Fprintf(w, "\nFailed checks\n")
		table := newTable(w, "Severity", "Check", "Reason", "Open issues")
		for _, r := range rows {
			table.Append([]string{colorSeverity(r.Check.Severity), r.Check.Label, r.Result.Reason, fmt.Sprint(len(r.OpenIssues()))})
		}
		table.Render()

		for _, r := range rows {
			open := r.OpenIssues()
			if len(open) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n[%s] issues\n", r.Check.ID)
			issues := newTable(w, "Issue", "Status", "Title")
			for _, i := range open {
				issues.Append([]string{i.Name, string(i.Status), i.Title})
			}
			issues.Render()
		}
	}

	if rows := doc.Rows(types.StatusPass); len(rows) > 0 {
		fmt.Fprintf(w, "\nPassed checks\n")
		table := newTable(w, "Check", "Category", "Reason")
		for _, r := range rows {
			table.Append([]string{r.Check.Label, r.Check.Category, r.Result.Reason})
		}
		table.Render()
	}

	if rows := doc.Rows(types.StatusIgnore); len(rows) > 0 {
		fmt.Fprintf(w, "\nIgnored checks\n")
		for _, r := range rows {
			fmt.Fprintf(w, "  %s: %s\n", r.Check.ID, r.Result.Reason)
		}
	}

	if rows := doc.Rows(types.StatusSkip); len(rows) > 0 {
		fmt.Fprintf(w, "\nSkipped checks\n")
		table := newTable(w, "Check", "Diagnostic")
		for _, r := range rows {
			table.Append([]string{r.Check.ID, color.YellowString(r.Result.Reason)})
		}
		table.Render()
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	return table
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return color.RedString("CRITICAL")
	case types.SeverityHigh:
		return color.RedString("HIGH")
	case types.SeverityLow:
		return color.CyanString("LOW")
	default:
		return string(s)
	}
}

func colorScore(score int) string {
	s := fmt.Sprintf("%d/100", score)
	switch {
	case score >= 80:
		return color.GreenString(s)
	case score >= 50:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

func formatSummary(doc Document) string {
	return fmt.Sprintf("%d checks (%d passed, %d failed, %d skipped, %d ignored)",
		len(doc.Report.Results),
		doc.Count(types.StatusPass),
		doc.Count(types.StatusFail),
		doc.Count(types.StatusSkip),
		doc.Count(types.StatusIgnore),
	)
}
