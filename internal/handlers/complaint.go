package handlers

import (
	"net/http"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

// ComplaintHandler handles complaint-related HTTP endpoints
type ComplaintHandler struct {
	complaintSvc *services.ComplaintService
	maxUpload    int64
	logger       *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(cs *services.ComplaintService, maxUpload int64, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: cs, maxUpload: maxUpload, logger: logger}
}

// Submit handles POST /api/v1/complaints
// Accepts a JSON body, or a multipart form with an optional "image" file.
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req models.ComplaintSubmission
	var image *services.Upload
	if isMultipart(r) {
		upload, file, ok := parseMultipart(w, r)
		if !ok {
			return
		}
		if file != nil {
			defer file.Close()
		}
		image = upload
		req = models.ComplaintSubmission{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Priority:    models.Priority(r.FormValue("priority")),
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	complaint, err := h.complaintSvc.Submit(r.Context(), a, req, image)
	if err != nil {
		respondErr(w, h.logger, err, "submit complaint")
		return
	}
	respondJSON(w, http.StatusCreated, complaint)
}

// List handles GET /api/v1/complaints
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	complaints, err := h.complaintSvc.List(r.Context(), a)
	if err != nil {
		respondErr(w, h.logger, err, "list complaints")
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Get handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	complaint, err := h.complaintSvc.Get(r.Context(), id, a)
	if err != nil {
		respondErr(w, h.logger, err, "get complaint")
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// UpdateStatus handles PATCH /api/v1/complaints/{id}/status
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req models.ComplaintStatusUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	complaint, err := h.complaintSvc.UpdateStatus(r.Context(), id, req, a)
	if err != nil {
		respondErr(w, h.logger, err, "update complaint status")
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Count handles GET /api/v1/complaints/count
func (h *ComplaintHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.complaintSvc.Count(r.Context())
	if err != nil {
		respondErr(w, h.logger, err, "count complaints")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}
