package web

import (
	"encoding/json"
	"io/fs"
	"net/http"

	"github.com/buemura/advaudit/internal/web/api"
	"github.com/buemura/advaudit/internal/web/pages"
	"github.com/go-chi/chi/v5"
)

// registerRoutes mounts all route groups on the server's router.
func (s *Server) registerRoutes() {
	pageHandlers := pages.NewPageHandlers(s.manager, s.runner, s.issues, s.reports, s.logger)
	apiHandlers := api.NewHandlers(s.manager, s.runner, s.issues, s.reports, s.logger)

	// Page routes
	s.router.Get("/", pageHandlers.Index)
	s.router.Get("/audits", pageHandlers.AuditList)
	s.router.Get("/audits/{id}", pageHandlers.AuditDetail)
	s.router.Get("/reports", pageHandlers.ReportList)
	s.router.Get("/reports/{id}", pageHandlers.ReportDetail)
	s.router.Get("/issues", pageHandlers.IssueList)
	s.router.NotFound(pageHandlers.NotFound)

	// Health check
	s.router.Get("/health", s.handleHealth)

	// REST API
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/checks", apiHandlers.ListChecks)
		r.Put("/checks/{id}/settings", apiHandlers.UpdateCheckSettings)

		r.Post("/audits", apiHandlers.CreateAudit)
		r.Get("/audits", apiHandlers.ListAudits)
		r.Get("/audits/{id}", apiHandlers.GetAudit)
		r.Get("/audits/{id}/report", apiHandlers.GetAuditReport)
		r.Delete("/audits/{id}", apiHandlers.DeleteAudit)

		r.Get("/reports", apiHandlers.ListReports)
		r.Get("/reports/{id}", apiHandlers.GetReport)
		r.Delete("/reports/{id}", apiHandlers.DeleteReport)

		r.Get("/issues", apiHandlers.ListIssues)
		r.Put("/issues/{key}/status", apiHandlers.SetIssueStatus)
	})

	// Embedded static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
