package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/buemura/advaudit/internal/check"
	"github.com/buemura/advaudit/internal/web/jobs"
	"github.com/buemura/advaudit/pkg/types"
)

// ErrorResponse is the standard error JSON body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// CheckResponse describes one catalog entry with its effective settings.
type CheckResponse struct {
	check.Definition
	Available   bool   `json:"available"`
	Unavailable string `json:"unavailable,omitempty"`
}

// AuditSummary is one row of GET /api/v1/audits.
type AuditSummary struct {
	ID          string         `json:"id"`
	Status      jobs.JobStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	Checks      []string       `json:"checks"`
	ReportID    string         `json:"report_id,omitempty"`
	Score       int            `json:"score"`
	FailedCount int            `json:"failed_count"`
}

// ReportSummary is one row of GET /api/v1/reports.
type ReportSummary struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Score     int                  `json:"score"`
	Counts    map[types.Status]int `json:"counts"`
}

// writeJSON encodes data as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

func statusCounts(r types.Report) map[types.Status]int {
	counts := make(map[types.Status]int, len(types.Statuses))
	for _, s := range types.Statuses {
		counts[s] = r.CountStatus(s)
	}
	return counts
}
