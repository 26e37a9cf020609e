package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/multiai-chatbot/utils"
	"go.uber.org/zap"
)

// ServiceName is reported by the health and info endpoints
const ServiceName = "MultiAI Chatbot API"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker is implemented by infrastructure the readiness probe verifies
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     HealthChecker
	logger *zap.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// exchange recorder is disabled.
func NewHealthHandler(db HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// HandleHealth handles GET /health
// Liveness check: always returns 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}

	if err := utils.WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "ready"
	httpStatus := http.StatusOK

	if h.db == nil {
		checks["database"] = "disabled"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Service:   ServiceName,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
