package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/buemura/advaudit/pkg/types"
)

// MarkdownFormatter renders the document as Markdown suitable for pasting
// into docs, issues, or pull-request descriptions.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, doc Document) error {
	fmt.Fprintf(w, "# Audit %s\n\n", doc.Report.ID)
	fmt.Fprintf(w, "**Score:** %d/100  \n", doc.Score)
	fmt.Fprintf(w, "**Summary:** %s\n", formatSummary(doc))

	if rows := doc.Rows(types.StatusFail); len(rows) > 0 {
		fmt.Fprintf(w, "\n## Failed\n\n")
		fmt.Fprintln(w, "| Severity | Check | Reason | Open issues |")
		fmt.Fprintln(w, "|----------|-------|--------|-------------|")
		for _, r := range rows {
			fmt.Fprintf(w, "| %s | %s | %s | %d |\n",
				severityBadge(r.Check.Severity), escapeMarkdown(r.Check.Label), escapeMarkdown(r.Result.Reason), len(r.OpenIssues()))
		}
		for _, r := range rows {
			open := r.OpenIssues()
			if len(open) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n### %s\n\n", r.Check.Label)
			for _, i := range open {
				fmt.Fprintf(w, "- `%s` %s\n", i.Key, escapeMarkdown(i.Title))
			}
		}
	}

	if rows := doc.Rows(types.StatusPass); len(rows) > 0 {
		fmt.Fprintf(w, "\n## Passed\n\n")
		for _, r := range rows {
			fmt.Fprintf(w, "- %s: %s\n", r.Check.Label, escapeMarkdown(r.Result.Reason))
		}
	}

	if rows := doc.Rows(types.StatusIgnore); len(rows) > 0 {
		fmt.Fprintf(w, "\n## Ignored\n\n")
		for _, r := range rows {
			fmt.Fprintf(w, "- %s: %s\n", r.Check.Label, escapeMarkdown(r.Result.Reason))
		}
	}

	if rows := doc.Rows(types.StatusSkip); len(rows) > 0 {
		fmt.Fprintf(w, "\n## Skipped\n\n")
		fmt.Fprintln(w, "| Check | Diagnostic |")
		fmt.Fprintln(w, "|-------|------------|")
		for _, r := range rows {
			fmt.Fprintf(w, "| %s | %s |\n", r.Check.ID, escapeMarkdown(r.Result.Reason))
		}
	}
	return nil
}

// severityBadge returns a bold severity label for Markdown.
func severityBadge(s types.Severity) string {
	if s == "" {
		return "-"
	}
	return fmt.Sprintf("**%s**", string(s))
}

// escapeMarkdown escapes pipe characters that would break Markdown tables.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
