package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sbms/facilities-server/internal/metrics"
	"github.com/sbms/facilities-server/internal/middleware"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

// Services bundles the workflow services the API is built on.
type Services struct {
	Auth        *services.AuthService
	Router      *services.DepartmentRouter
	Complaints  *services.ComplaintService
	LostItems   *services.LostItemService
	Leaderboard *services.LeaderboardService
	Analytics   *services.AnalyticsService
}

// RouterConfig carries the HTTP-level settings of the API.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int
	UploadDir      string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// NewRouter builds the chi router serving /api/v1, /metrics and /uploads.
func NewRouter(cfg RouterConfig, svc Services, db Pinger, logger *zap.Logger) http.Handler {
	sugar := logger.Sugar()

	complaintHandler := NewComplaintHandler(svc.Complaints, cfg.MaxUploadBytes, sugar)
	activityHandler := NewActivityHandler(svc.Complaints, sugar)
	lostItemHandler := NewLostItemHandler(svc.LostItems, cfg.MaxUploadBytes, sugar)
	userHandler := NewUserHandler(svc.Auth, svc.Router, svc.Leaderboard, sugar)
	analyticsHandler := NewAnalyticsHandler(svc.Analytics, sugar)
	healthHandler := NewHealthHandler(db, sugar)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Metrics())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPM))

		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		r.Post("/auth/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))

			r.Get("/me", userHandler.Me)
			r.Get("/leaderboard", userHandler.Leaderboard)

			r.Route("/complaints", func(r chi.Router) {
				r.Post("/", complaintHandler.Submit)
				r.Get("/", complaintHandler.List)
				r.With(middleware.RequireRole(models.RoleAdmin)).Get("/count", complaintHandler.Count)
				r.Get("/{id}", complaintHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOfficer))
					r.Patch("/{id}/status", complaintHandler.UpdateStatus)
					r.Get("/{id}/activity", activityHandler.ByComplaint)
				})
			})

			r.Route("/lost-items", func(r chi.Router) {
				r.With(middleware.RequireRole(models.RoleStudent)).Post("/", lostItemHandler.Report)
				r.Get("/", lostItemHandler.List)
				r.With(middleware.RequireRole(models.RoleAdmin)).Patch("/{id}/status", lostItemHandler.UpdateStatus)
			})

			// Admin-only views
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/officers", userHandler.Officers)
				r.Get("/analytics/categories", analyticsHandler.Categories)
				r.Get("/analytics/departments", analyticsHandler.Departments)
			})
		})
	})

	return r
}
