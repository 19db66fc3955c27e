package handlers

import (
	"net/http"

	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

// AnalyticsHandler serves aggregate complaint statistics
type AnalyticsHandler struct {
	svc    *services.AnalyticsService
	logger *zap.SugaredLogger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc *services.AnalyticsService, logger *zap.SugaredLogger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// Categories handles GET /api/v1/analytics/categories
func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		respondErr(w, h.logger, err, "fetch categories")
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// Departments handles GET /api/v1/analytics/departments
func (h *AnalyticsHandler) Departments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.svc.Departments(r.Context())
	if err != nil {
		respondErr(w, h.logger, err, "fetch departments")
		return
	}
	respondJSON(w, http.StatusOK, depts)
}
