package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/webaudit360/internal/audit"
	"github.com/JakeFAU/webaudit360/internal/config"
	"github.com/JakeFAU/webaudit360/internal/logging"
	"github.com/JakeFAU/webaudit360/internal/metrics"
)

const (
	maxRequestBodyBytes = 1 << 20
	readyTimeout        = 2 * time.Second
)

// AuditService is the subset of audit.Service the handlers call.
type AuditService interface {
	CreateAudit(ctx context.Context, rawURL string) (audit.Job, error)
	GetResult(ctx context.Context, id int64) (audit.Report, error)
}

// Pinger reports store reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the audit service.
type Server struct {
	router   chi.Router
	svc      AuditService
	store    Pinger
	cfg      config.Config
	logger   *zap.Logger
	validate *validator.Validate
}

type auditRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

type auditResponse struct {
	JobID int64  `json:"job_id"`
	URL   string `json:"url"`
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc AuditService, store Pinger, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:      svc,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware)
	}
	r.Use(timeoutMiddleware(timeout))

	r.Get("/health", s.health)
	r.Get("/readyz", s.readyz)
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Post("/audit/", s.createAudit)
	r.Post("/audit", s.createAudit)
	r.Get("/results/{job_id}", s.getResult)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn("Readiness check failed", zap.Error(err))
		s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) createAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	job, err := s.svc.CreateAudit(r.Context(), req.URL)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, auditResponse{JobID: job.ID, URL: job.URL})
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "job_id"), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, "job_id must be an integer")
		return
	}
	report, err := s.svc.GetResult(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, report)
}

// writeServiceError maps audit domain failures to HTTP statuses. Anything
// without a domain Kind is an infrastructure failure and stays a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *audit.Error
	isDomain := errors.As(err, &domainErr)
	switch {
	case isDomain && domainErr.Kind == audit.KindNotFound:
		s.writeError(w, r, http.StatusNotFound, "Job not found")
	case isDomain && domainErr.Kind == audit.KindFetchFailed:
		s.writeError(w, r, http.StatusBadGateway, domainErr.Detail)
	case isDomain && domainErr.Kind == audit.KindInvalidURL:
		s.writeError(w, r, http.StatusUnprocessableEntity, domainErr.Detail)
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, r, http.StatusGatewayTimeout, "request timed out")
	default:
		logging.FromContext(r.Context(), s.logger).Error("Request failed", zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return "url is required"
		case "http_url":
			return "url must be an absolute http or https URL"
		}
	}
	return "invalid request"
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	s.writeJSON(w, r, status, map[string]string{"detail": detail})
}
