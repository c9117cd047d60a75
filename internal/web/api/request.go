package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buemura/advaudit/pkg/types"
)

// CreateAuditRequest is the JSON body for POST /api/v1/audits.
type CreateAuditRequest struct {
	Checks      []string `json:"checks"`
	Categories  []string `json:"categories"`
	All         bool     `json:"all"`
	Concurrency int      `json:"concurrency"`
}

// decodeCreateAuditRequest reads and validates the request body. An empty
// body selects every enabled check.
func decodeCreateAuditRequest(r *http.Request) (*CreateAuditRequest, error) {
	var req CreateAuditRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if req.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be non-negative")
	}
	if req.Concurrency == 0 {
		req.Concurrency = 1
	}
	return &req, nil
}

// UpdateSettingsRequest is the JSON body for PUT /api/v1/checks/{id}/settings.
// Omitted fields keep their current override; Reset drops every override.
type UpdateSettingsRequest struct {
	Enabled  *bool  `json:"enabled"`
	Severity string `json:"severity"`
	Reset    bool   `json:"reset"`
}

func decodeUpdateSettingsRequest(r *http.Request) (*UpdateSettingsRequest, types.Severity, error) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", err)
	}
	if req.Reset {
		return &req, "", nil
	}
	if req.Enabled == nil && req.Severity == "" {
		return nil, "", fmt.Errorf("enabled, severity or reset is required")
	}
	var sev types.Severity
	if req.Severity != "" {
		var err error
		if sev, err = types.ParseSeverity(req.Severity); err != nil {
			return nil, "", err
		}
	}
	return &req, sev, nil
}

// SetIssueStatusRequest is the JSON body for PUT /api/v1/issues/{key}/status.
type SetIssueStatusRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func decodeSetIssueStatusRequest(r *http.Request) (types.IssueStatus, string, error) {
	var req SetIssueStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", "", fmt.Errorf("invalid JSON: %w", err)
	}
	if req.Status == "" {
		return "", "", fmt.Errorf("status is required")
	}
	status, err := types.ParseIssueStatus(req.Status)
	if err != nil {
		return "", "", err
	}
	return status, req.Message, nil
}
