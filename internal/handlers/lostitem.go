package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

// LostItemHandler handles lost-and-found endpoints
type LostItemHandler struct {
	svc       *services.LostItemService
	maxUpload int64
	logger    *zap.SugaredLogger
}

// NewLostItemHandler creates a new lost item handler
func NewLostItemHandler(svc *services.LostItemService, maxUpload int64, logger *zap.SugaredLogger) *LostItemHandler {
	return &LostItemHandler{svc: svc, maxUpload: maxUpload, logger: logger}
}

// Report handles POST /api/v1/lost-items
// Multipart forms carry lost_time as RFC 3339 and an optional "image" file.
func (h *LostItemHandler) Report(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req models.LostItemReport
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

		req = models.LostItemReport{
			ItemName:    r.FormValue("item_name"),
			Description: r.FormValue("description"),
			LostPlace:   r.FormValue("lost_place"),
		}
		if raw := r.FormValue("lost_time"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				respondErr(w, h.logger, apperr.NewValidationError(errors.New("invalid lost_time"), apperr.FieldError{
					Field: "lost_time", Error: "must be an RFC 3339 timestamp",
				}), "report lost item")
				return
			}
			req.LostTime = t
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.svc.Report(r.Context(), a, req, image)
	if err != nil {
		respondErr(w, h.logger, err, "report lost item")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// List handles GET /api/v1/lost-items
func (h *LostItemHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), a)
	if err != nil {
		respondErr(w, h.logger, err, "list lost items")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// UpdateStatus handles PATCH /api/v1/lost-items/{id}/status
func (h *LostItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req models.LostItemStatusUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, req, a); err != nil {
		respondErr(w, h.logger, err, "update lost item status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": req.Status})
}
