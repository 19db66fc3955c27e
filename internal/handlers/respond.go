// Package handlers contains HTTP request handlers for the facilities API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/middleware"
	"github.com/sbms/facilities-server/internal/models"
	"go.uber.org/zap"
)

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps a service error to its status code. Internal errors are
// logged and hidden from the client.
func respondErr(w http.ResponseWriter, logger *zap.SugaredLogger, err error, action string) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw("Failed to "+action, "error", err)
	}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		respondJSON(w, status, map[string]interface{}{
			"error":  apperr.Message(err),
			"fields": verr.Fields,
		})
		return
	}
	respondError(w, status, apperr.Message(err))
}

// actor returns the caller set by middleware.RequireAuth.
func actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	a, ok := middleware.ActorFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
	}
	return a, ok
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// intQuery parses an optional integer query parameter, returning 0 when absent.
func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return n, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
