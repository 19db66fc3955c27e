package handlers

import (
	"net/http"

	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

// ActivityHandler handles activity log endpoints
type ActivityHandler struct {
	complaintSvc *services.ComplaintService
	logger       *zap.SugaredLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(cs *services.ComplaintService, logger *zap.SugaredLogger) *ActivityHandler {
	return &ActivityHandler{complaintSvc: cs, logger: logger}
}

// ByComplaint handles GET /api/v1/complaints/{id}/activity
func (h *ActivityHandler) ByComplaint(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}

	logs, err := h.complaintSvc.Activity(r.Context(), id, a, limit)
	if err != nil {
		respondErr(w, h.logger, err, "fetch activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
