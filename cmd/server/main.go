// Package main is the entry point for the smart building facilities server.
// It provides a REST API for complaint submission and tracking, the
// lost-and-found desk and the student points leaderboard.
//
// Architecture:
//   - Complaints are routed by category to the on-duty department officer
//   - Every submission earns the reporter a point; the first resolution
//     earns three more, exactly once, inside the status-change transaction
//   - Activity logs record every workflow step per complaint
//   - Leaderboard standings are cached in Redis when configured
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sbms/facilities-server/internal/cache"
	"github.com/sbms/facilities-server/internal/config"
	"github.com/sbms/facilities-server/internal/database"
	"github.com/sbms/facilities-server/internal/filestore"
	"github.com/sbms/facilities-server/internal/handlers"
	"github.com/sbms/facilities-server/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := newLogger(cfg.Environment)
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting facilities server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"storage", cfg.Storage,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Open storage (PostgreSQL pool or in-memory)
	db, err := database.Open(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()

	// Optional Redis leaderboard cache
	var standings services.StandingsCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			sugar.Warnw("Redis unavailable, leaderboard cache disabled", "error", err)
		} else {
			defer rdb.Close()
			standings = cache.NewLeaderboard(rdb, cfg.LeaderboardCache)
			sugar.Infow("Leaderboard cache enabled", "ttl", cfg.LeaderboardCache)
		}
	}

	files, err := filestore.NewLocal(cfg.UploadDir)
	if err != nil {
		sugar.Fatalf("Failed to prepare upload dir: %v", err)
	}

	// Initialize services
	router := services.NewDepartmentRouter(db.Store)
	ledger := services.NewRewardsLedger(standings, sugar)
	activitySvc := services.NewActivityLogService(db.Store, sugar)
	complaintSvc := services.NewComplaintService(db.Store, router, ledger, files, activitySvc, sugar)
	analyticsSvc := services.NewAnalyticsService(db.Store)
	svc := handlers.Services{
		Auth:        services.NewAuthService(db.Store, cfg.JWTSecret, cfg.TokenTTL, sugar),
		Router:      router,
		Complaints:  complaintSvc,
		LostItems:   services.NewLostItemService(db.Store, files, sugar),
		Leaderboard: services.NewLeaderboardService(db.Store, standings, sugar),
		Analytics:   analyticsSvc,
	}

	// Start background stats worker (publishes backlog gauges)
	statsWorker := services.NewStatsWorker(complaintSvc, analyticsSvc, sugar)
	go statsWorker.Start(ctx, time.Minute)

	r := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPM:   cfg.RateLimitRPM,
		UploadDir:      files.Dir(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: 30 * time.Second,
	}, svc, db.Store, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
