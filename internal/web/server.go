// Package web serves the audit engine over HTTP: a JSON API, asynchronous
// audit jobs and a small set of HTML pages.
package web

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"time"

	"github.com/buemura/advaudit/internal/audit"
	"github.com/buemura/advaudit/internal/issue"
	"github.com/buemura/advaudit/internal/web/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server is the HTTP server for the advaudit web application.
type Server struct {
	router  chi.Router
	addr    string
	runner  *audit.Runner
	issues  *issue.Tracker
	reports audit.ReportStore
	manager *jobs.Manager
	logger  *zap.Logger
}

// NewServer builds a new Server with middleware and routes configured.
func NewServer(addr string, runner *audit.Runner, issues *issue.Tracker, reports audit.ReportStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:  chi.NewRouter(),
		addr:    addr,
		runner:  runner,
		issues:  issues,
		reports: reports,
		manager: jobs.NewManager(runner, logger),
		logger:  logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.registerRoutes()

	return s
}

// SetCheckConfig replaces the per-check configuration of audits started
// from now on.
func (s *Server) SetCheckConfig(cfg map[string]map[string]any) {
	s.manager.SetConfig(cfg)
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the chi.Router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
