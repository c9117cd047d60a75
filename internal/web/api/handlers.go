package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/output"
	"github.com/buemura/advaudit/internal/web/jobs"
	"github.com/buemura/advaudit/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handlers holds dependencies for the REST API handlers.
type Handlers struct {
	Manager *jobs.Manager
	Runner  *audit.Runner
	Issues  *issue.Tracker
	Reports audit.ReportStore
	Logger  *zap.Logger
}

// NewHandlers creates API handlers with the given dependencies.
func NewHandlers(manager *jobs.Manager, runner *audit.Runner, issues *issue.Tracker, reports audit.ReportStore, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{Manager: manager, Runner: runner, Issues: issues, Reports: reports, Logger: logger}
}

// ListChecks handles GET /api/v1/checks.
func (h *Handlers) ListChecks(w http.ResponseWriter, r *http.Request) {
	defs := h.Runner.Definitions(r.Context())
	entries := h.Runner.Executor().Registry().All()

	checks := make([]CheckResponse, len(entries))
	for i, e := range entries {
		checks[i] = CheckResponse{Definition: defs[e.Definition.ID], Available: e.Available()}
		if e.Unavailable != nil {
			checks[i].Unavailable = e.Unavailable.Error()
		}
	}
	writeJSON(w, http.StatusOK, checks)
}

// UpdateCheckSettings handles PUT /api/v1/checks/{id}/settings.
func (h *Handlers) UpdateCheckSettings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exec := h.Runner.Executor()
	entry, err := exec.Registry().Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	settings := exec.Settings()
	if settings == nil {
		writeError(w, http.StatusNotImplemented, "check settings are not persisted")
		return
	}

	req, sev, err := decodeUpdateSettingsRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	switch {
	case req.Reset:
		err = settings.DeleteSettings(ctx, id)
	default:
		if req.Enabled != nil {
			err = check.SetEnabled(ctx, settings, id, *req.Enabled)
		}
		if err == nil && sev != "" {
			err = check.SetSeverity(ctx, settings, id, sev)
		}
	}
	if err != nil && !errors.Is(err, check.ErrSettingsNotFound) {
		h.Logger.Error("updating check settings", zap.String("check", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update settings: "+err.Error())
		return
	}

	def, err := check.Resolve(ctx, settings, entry.Definition)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Definition: def, Available: entry.Available()})
}

// CreateAudit handles POST /api/v1/audits.
func (h *Handlers) CreateAudit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateAuditRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := h.Runner.Select(r.Context(), audit.Selection{
		IDs:        req.Checks,
		Categories: req.Categories,
		All:        req.All,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := h.Manager.Create(ids, req.Concurrency)
	if err := h.Manager.Start(job.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start audit: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     job.ID,
		"status": jobs.StatusRunning,
		"checks": ids,
	})
}

// ListAudits handles GET /api/v1/audits.
func (h *Handlers) ListAudits(w http.ResponseWriter, r *http.Request) {
	jobList := h.Manager.List()

	summaries := make([]AuditSummary, len(jobList))
	for i, j := range jobList {
		summaries[i] = AuditSummary{
			ID:          j.ID,
			Status:      j.Status,
			CreatedAt:   j.CreatedAt,
			Checks:      j.Checks,
			Score:       j.Score,
			FailedCount: j.FailedCount(),
		}
		if j.Report != nil {
			summaries[i].ReportID = j.Report.ID
		}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetAudit handles GET /api/v1/audits/{id}.
func (h *Handlers) GetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.Manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// GetAuditReport handles GET /api/v1/audits/{id}/report.
func (h *Handlers) GetAuditReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.Manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if !job.Done() || job.Report == nil {
		writeError(w, http.StatusConflict, "audit is not yet completed")
		return
	}

	h.renderReport(w, r, *job.Report, "html")
}

// DeleteAudit handles DELETE /api/v1/audits/{id}.
func (h *Handlers) DeleteAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReports handles GET /api/v1/reports.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Reports.ListReports(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]ReportSummary, len(reports))
	for i, rep := range reports {
		score, err := audit.ScoreReport(r.Context(), h.Issues, rep)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		summaries[i] = ReportSummary{ID: rep.ID, CreatedAt: rep.CreatedAt, Score: score, Counts: statusCounts(rep)}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetReport handles GET /api/v1/reports/{id}. The format query parameter
// selects any output format; the default is the JSON document.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.LoadReport(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audit.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	h.renderReport(w, r, report, format)
}

// DeleteReport handles DELETE /api/v1/reports/{id}.
func (h *Handlers) DeleteReport(w http.ResponseWriter, r *http.Request) {
	err := h.Reports.DeleteReport(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audit.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListIssues handles GET /api/v1/issues. Query parameters check and status
// narrow the list.
func (h *Handlers) ListIssues(w http.ResponseWriter, r *http.Request) {
	f := issue.Filter{CheckID: r.URL.Query().Get("check")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := types.ParseIssueStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = status
	}

	issues, err := h.Issues.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if issues == nil {
		issues = []types.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// SetIssueStatus handles PUT /api/v1/issues/{key}/status.
func (h *Handlers) SetIssueStatus(w http.ResponseWriter, r *http.Request) {
	status, message, err := decodeSetIssueStatusRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.Issues.SetStatus(r.Context(), chi.URLParam(r, "key"), status, message)
	if errors.Is(err, issue.ErrIssueNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) renderReport(w http.ResponseWriter, r *http.Request, report types.Report, format string) {
	formatter, err := output.GetFormatter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := output.Build(r.Context(), report, h.Runner.Definitions(r.Context()), h.Issues)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, doc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

var contentTypes = map[string]string{
	"json":     "application/json",
	"html":     "text/html; charset=utf-8",
	"markdown": "text/markdown; charset=utf-8",
	"table":    "text/plain; charset=utf-8",
}
