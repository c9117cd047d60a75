package output

import (
	"fmt"
	"html/template"
	"io"

	"github.com/buemura/advaudit/pkg/types"
)

// HTMLFormatter renders the document as a self-contained HTML report with
// styled severity badges and expandable issue lists.
type HTMLFormatter struct{}

func (f *HTMLFormatter) Format(w io.Writer, doc Document) error {
	return htmlTpl.Execute(w, templateData{
		Doc:     doc,
		Failed:  doc.Rows(types.StatusFail),
		Passed:  doc.Rows(types.StatusPass),
		Ignored: doc.Rows(types.StatusIgnore),
		Skipped: doc.Rows(types.StatusSkip),
	})
}

type templateData struct {
	Doc     Document
	Failed  []Row
	Passed  []Row
	Ignored []Row
	Skipped []Row
}

// SeverityClass maps a Severity to a CSS class name.
func SeverityClass(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return "critical"
	case types.SeverityHigh:
		return "high"
	case types.SeverityLow:
		return "low"
	default:
		return "info"
	}
}

// ScoreClass maps a score to a CSS class name.
func ScoreClass(score int) string {
	switch {
	case score >= 80:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}

var funcMap = template.FuncMap{
	"severityClass": SeverityClass,
	"scoreClass":    ScoreClass,
}

var htmlTpl = template.Must(template.New("report").Funcs(funcMap).Parse(fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Audit Report {{.Doc.Report.ID}}</title>
<style>%s</style>
</head>
<body>
<div class="container">
  <h1>Audit Report</h1>
  <p class="meta">{{.Doc.Report.ID}} &middot; {{.Doc.Report.CreatedAt.Format "2006-01-02 15:04:05"}}</p>

  <div class="summary-bar">
    <span class="score {{scoreClass .Doc.Score}}">{{.Doc.Score}}/100</span>
    <span class="badge pass">{{len .Passed}} Passed</span>
    <span class="badge fail">{{len .Failed}} Failed</span>
    <span class="badge skip">{{len .Skipped}} Skipped</span>
    <span class="badge ignore">{{len .Ignored}} Ignored</span>
  </div>

  {{if .Failed}}
  <section>
    <h2>Failed</h2>
    <table>
      <thead><tr><th>Severity</th><th>Check</th><th>Reason</th></tr></thead>
      <tbody>
        {{range .Failed}}
        <tr>
          <td><span class="badge {{severityClass .Check.Severity}}">{{.Check.Severity}}</span></td>
          <td>{{.Check.Label}}</td>
          <td>
            {{.Result.Reason}}
            {{with .OpenIssues}}
            <details>
              <summary>{{len .}} open issue(s)</summary>
              <ul>{{range .}}<li><code>{{.Key}}</code> {{.Title}}</li>{{end}}</ul>
            </details>
            {{end}}
          </td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </section>
  {{end}}

  {{if .Passed}}
  <section>
    <h2>Passed</h2>
    <ul class="plain">{{range .Passed}}<li><strong>{{.Check.Label}}</strong> {{.Result.Reason}}</li>{{end}}</ul>
  </section>
  {{end}}

  {{if .Ignored}}
  <section>
    <h2>Ignored</h2>
    <ul class="plain">{{range .Ignored}}<li><strong>{{.Check.Label}}</strong> {{.Result.Reason}}</li>{{end}}</ul>
  </section>
  {{end}}

  {{if .Skipped}}
  <section>
    <h2>Skipped</h2>
    {{range .Skipped}}
    <div class="error-box"><strong>{{.Check.ID}}</strong> {{.Result.Reason}}</div>
    {{end}}
  </section>
  {{end}}
</div>
</body>
</html>`, cssStyles)))

const cssStyles = `
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,Helvetica,Arial,sans-serif;
     line-height:1.6;color:#1a1a2e;background:#f5f5fa;padding:2rem}
.container{max-width:960px;margin:0 auto}
h1{font-size:1.8rem}
h2{margin:1.5rem 0 .75rem;font-size:1.3rem;border-bottom:2px solid #e0e0e0;padding-bottom:.3rem}
.meta{color:#666;margin-bottom:1rem}
.summary-bar{display:flex;gap:.5rem;flex-wrap:wrap;align-items:center;margin-bottom:1.5rem}
.score{font-size:1.4rem;font-weight:700;margin-right:.5rem}
.score.good{color:#2e7d32}.score.fair{color:#f9a825}.score.poor{color:#c62828}
.badge{display:inline-block;padding:2px 10px;border-radius:12px;font-size:.8rem;font-weight:700;color:#fff;text-transform:uppercase}
.badge.critical{background:#d32f2f}
.badge.high{background:#e53935}
.badge.low{background:#0288d1}
.badge.info{background:#757575}
.badge.pass{background:#2e7d32}
.badge.fail{background:#c62828}
.badge.skip{background:#f9a825;color:#333}
.badge.ignore{background:#757575}
table{width:100%;border-collapse:collapse;margin-bottom:1rem}
th,td{text-align:left;padding:.5rem .75rem;border-bottom:1px solid #e0e0e0;vertical-align:top}
th{background:#eaeaea;font-weight:600}
details{margin-top:.4rem}
summary{cursor:pointer;color:#1565c0;font-size:.85rem}
ul.plain{list-style:none}
.error-box{background:#fff8e1;color:#6d4c41;padding:.5rem 1rem;border-radius:6px;margin-bottom:.5rem}
`
