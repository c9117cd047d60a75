package pages

import (
	"errors"
	"net/http"
	"time"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/output"
	"github.com/buemura/advaudit/internal/web/jobs"
	"github.com/buemura/advaudit/internal/web/templates"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckInfo holds display information about a registered check.
type CheckInfo struct {
	ID          string
	Label       string
	Description string
	Category    string
	Severity    types.Severity
	Enabled     bool
	Available   bool
	Unavailable string
}

// IndexData is the template data for the index (check list) page.
type IndexData struct {
	Checks []CheckInfo
}

// AuditListData is the template data for the audit history page.
type AuditListData struct {
	Jobs       []*jobs.Job
	HasRunning bool
}

// AuditDetailData is the template data for the audit detail page.
type AuditDetailData struct {
	Job *jobs.Job
}

// ReportRow is one stored report in the report list.
type ReportRow struct {
	ID                       string
	CreatedAt                time.Time
	Score                    int
	Pass, Fail, Skip, Ignore int
}

// ReportListData is the template data for the report list page.
type ReportListData struct {
	Reports []ReportRow
}

// ReportDetailData is the template data for a single report.
type ReportDetailData struct {
	Doc     output.Document
	Failed  []output.Row
	Passed  []output.Row
	Ignored []output.Row
	Skipped []output.Row
}

// IssueListData is the template data for the issue list page.
type IssueListData struct {
	Issues []types.Issue
	Status types.IssueStatus
}

// NotFoundData is the template data for the 404 page.
type NotFoundData struct {
	Message string
}

// PageHandlers serves the HTML pages of the web application.
type PageHandlers struct {
	manager *jobs.Manager
	runner  *audit.Runner
	issues  *issue.Tracker
	reports audit.ReportStore
	logger  *zap.Logger
}

// NewPageHandlers creates a new PageHandlers.
func NewPageHandlers(manager *jobs.Manager, runner *audit.Runner, issues *issue.Tracker, reports audit.ReportStore, logger *zap.Logger) *PageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandlers{
		manager: manager,
		runner:  runner,
		issues:  issues,
		reports: reports,
		logger:  logger,
	}
}

// Index renders the landing page with the check list and audit form.
func (h *PageHandlers) Index(w http.ResponseWriter, r *http.Request) {
	defs := h.runner.Definitions(r.Context())
	entries := h.runner.Executor().Registry().All()
	info := make([]CheckInfo, len(entries))
	for i, e := range entries {
		def := defs[e.Definition.ID]
		info[i] = CheckInfo{
			ID:          def.ID,
			Label:       def.Label,
			Description: def.Description,
			Category:    def.Category,
			Severity:    def.Severity,
			Enabled:     def.Enabled,
			Available:   e.Available(),
		}
		if e.Unavailable != nil {
			info[i].Unavailable = e.Unavailable.Error()
		}
	}

	h.render(w, "index.html", IndexData{Checks: info})
}

// AuditList renders the audit history page.
func (h *PageHandlers) AuditList(w http.ResponseWriter, r *http.Request) {
	jobList := h.manager.List()
	hasRunning := false
	for _, j := range jobList {
		if !j.Done() {
			hasRunning = true
			break
		}
	}
	h.render(w, "audits.html", AuditListData{Jobs: jobList, HasRunning: hasRunning})
}

// AuditDetail renders the detail page for a single audit job.
func (h *PageHandlers) AuditDetail(w http.ResponseWriter, r *http.Request) {
	job, err := h.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.notFound(w, "Audit not found.")
		return
	}
	h.render(w, "audit_detail.html", AuditDetailData{Job: job})
}

// ReportList renders the stored reports, scored against the current
// issue state.
func (h *PageHandlers) ReportList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListReports(r.Context())
	if err != nil {
		h.serverError(w, "listing reports", err)
		return
	}

	rows := make([]ReportRow, len(reports))
	for i, rep := range reports {
		score, err := audit.ScoreReport(r.Context(), h.issues, rep)
		if err != nil {
			h.serverError(w, "scoring report", err)
			return
		}
		rows[i] = ReportRow{
			ID:        rep.ID,
			CreatedAt: rep.CreatedAt,
			Score:     score,
			Pass:      rep.CountStatus(types.StatusPass),
			Fail:      rep.CountStatus(types.StatusFail),
			Skip:      rep.CountStatus(types.StatusSkip),
			Ignore:    rep.CountStatus(types.StatusIgnore),
		}
	}
	h.render(w, "reports.html", ReportListData{Reports: rows})
}

// ReportDetail renders one stored report with its issues.
func (h *PageHandlers) ReportDetail(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.LoadReport(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audit.ErrReportNotFound) {
		h.notFound(w, "Report not found.")
		return
	}
	if err != nil {
		h.serverError(w, "loading report", err)
		return
	}

	doc, err := output.Build(r.Context(), report, h.runner.Definitions(r.Context()), h.issues)
	if err != nil {
		h.serverError(w, "building report", err)
		return
	}
	h.render(w, "report_detail.html", ReportDetailData{
		Doc:     doc,
		Failed:  doc.Rows(types.StatusFail),
		Passed:  doc.Rows(types.StatusPass),
		Ignored: doc.Rows(types.StatusIgnore),
		Skipped: doc.Rows(types.StatusSkip),
	})
}

// IssueList renders the tracked issues, optionally filtered by status.
func (h *PageHandlers) IssueList(w http.ResponseWriter, r *http.Request) {
	var f issue.Filter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := types.ParseIssueStatus(raw)
		if err != nil {
			h.message(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = status
	}

	issues, err := h.issues.List(r.Context(), f)
	if err != nil {
		h.serverError(w, "listing issues", err)
		return
	}
	h.render(w, "issues.html", IssueListData{Issues: issues, Status: f.Status})
}

// NotFound renders the 404 page for unknown routes.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, "Page not found.")
}

func (h *PageHandlers) render(w http.ResponseWriter, name string, data interface{}) {
	if err := templates.RenderPage(w, name, data); err != nil {
		h.serverError(w, "rendering page", err)
	}
}

func (h *PageHandlers) notFound(w http.ResponseWriter, msg string) {
	h.message(w, http.StatusNotFound, msg)
}

func (h *PageHandlers) message(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.RenderPage(w, "not_found.html", NotFoundData{Message: msg})
}

func (h *PageHandlers) serverError(w http.ResponseWriter, what string, err error) {
	h.logger.Error(what, zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
