package handlers

import (
	"net/http"
	"time"

	"github.com/dsiops/secret-gitlab-trigger/config"
	"github.com/dsiops/secret-gitlab-trigger/services/secrets"
	"github.com/dsiops/secret-gitlab-trigger/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	cfg     *config.Config
	secrets secrets.LabelFetcher
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(cfg *config.Config, fetcher secrets.LabelFetcher, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		secrets: fetcher,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// An incomplete trigger configuration degrades readiness but keeps the
// service in rotation: deliveries are still acknowledged and skipped.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if h.secrets == nil {
		checks["secret_store"] = "unavailable"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["secret_store"] = "healthy"
	}

	if err := h.cfg.GitLab.TriggerReady(); err != nil {
		checks["trigger_config"] = "incomplete"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["trigger_config"] = "ready"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
