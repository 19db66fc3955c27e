package handlers

import (
	"net/http"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

// UserHandler handles login, the caller's profile and the points leaderboard
type UserHandler struct {
	authSvc     *services.AuthService
	router      *services.DepartmentRouter
	leaderboard *services.LeaderboardService
	logger      *zap.SugaredLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(as *services.AuthService, router *services.DepartmentRouter, ls *services.LeaderboardService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{authSvc: as, router: router, leaderboard: ls, logger: logger}
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		respondErr(w, h.logger, err, "log in")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	u, err := h.authSvc.CurrentUser(r.Context(), a)
	if err != nil {
		respondErr(w, h.logger, err, "load current user")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// Officers handles GET /api/v1/officers
func (h *UserHandler) Officers(w http.ResponseWriter, r *http.Request) {
	officers, err := h.router.Officers(r.Context())
	if err != nil {
		respondErr(w, h.logger, err, "list officers")
		return
	}
	respondJSON(w, http.StatusOK, officers)
}

// Leaderboard handles GET /api/v1/leaderboard?limit=N
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}
	entries, err := h.leaderboard.TopStudents(r.Context(), limit)
	if err != nil {
		respondErr(w, h.logger, err, "rank students")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
