package templates

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/buemura/advaudit/internal/output"
	"github.com/buemura/advaudit/pkg/types"
)

//go:embed *.html
var templateFS embed.FS

// pages holds a per-page template set, each cloned from the base layout.
var pages map[string]*template.Template

// PageNames lists every page template.
var PageNames = []string{
	"index.html",
	"audits.html",
	"audit_detail.html",
	"reports.html",
	"report_detail.html",
	"issues.html",
	"not_found.html",
}

func init() {
	funcMap := template.FuncMap{
		"severityClass":  output.SeverityClass,
		"scoreClass":     output.ScoreClass,
		"statusClass":    statusClass,
		"issueClass":     issueClass,
		"truncateID":     truncateID,
		"formatDuration": formatDuration,
		"formatTime":     formatTime,
		"progressPct":    progressPct,
		"lower":          strings.ToLower,
	}

	// Parse the base layout first.
	base := template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "base.html"))

	// Each page template clones the base and adds its own content block.
	pages = make(map[string]*template.Template, len(PageNames))
	for _, name := range PageNames {
		clone := template.Must(base.Clone())
		pages[name] = template.Must(clone.ParseFS(templateFS, name))
	}
}

// RenderPage executes the named page template into the response writer.
func RenderPage(w http.ResponseWriter, name string, data interface{}) error {
	tmpl, ok := pages[name]
	if !ok {
		return fmt.Errorf("render template %q: template not found", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %q: %w", name, err)
	}
	return nil
}

// statusClass returns a CSS class name for a check status.
func statusClass(s types.Status) string {
	switch s {
	case types.StatusPass:
		return "pass"
	case types.StatusFail:
		return "fail"
	case types.StatusIgnore:
		return "ignore"
	default:
		return "skip"
	}
}

func issueClass(s types.IssueStatus) string {
	switch s {
	case types.IssueOpen:
		return "fail"
	case types.IssueFixed:
		return "pass"
	default:
		return "ignore"
	}
}

// truncateID shortens a UUID for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Second).String()
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// progressPct calculates a progress percentage from completed and total.
func progressPct(completed, total int) int {
	if total == 0 {
		return 0
	}
	return (completed * 100) / total
}
