package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sbms/facilities-server/internal/config"
	"github.com/sbms/facilities-server/internal/storage"
	"github.com/sbms/facilities-server/internal/storage/memory"
	"github.com/sbms/facilities-server/internal/storage/postgres"
	"go.uber.org/zap"
)

// Handle is an opened storage backend. Pool is nil for the memory backend.
type Handle struct {
	Store storage.Store
	Pool  *pgxpool.Pool
}

// Close releases the connection pool, if any.
func (h *Handle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
}

// Open connects the backend selected by cfg.Storage, applies pending
// migrations when AutoMigrate is set and provisions the default accounts
// when requested. The memory backend is always seeded.
func Open(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Handle, error) {
	h := &Handle{}
	seed := cfg.SeedDefaultUsers

	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, all data is lost on restart")
		h.Store = memory.New()
		seed = true
	default:
		pool, err := NewPool(cfg.DatabaseURL, cfg.DBConnectTimeout)
		if err != nil {
			return nil, err
		}
		h.Pool = pool
		h.Store = postgres.New(pool)

		if cfg.AutoMigrate {
			if err := Migrate(ctx, pool, "up"); err != nil {
				pool.Close()
				return nil, err
			}
			logger.Info("Database migrations applied")
		}
	}

	if seed {
		n, err := Seed(ctx, h.Store, DefaultUsers)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("provision default users: %w", err)
		}
		logger.Infow("Default users provisioned", "created", n)
	}
	return h, nil
}
