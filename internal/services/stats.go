package services

import (
	"context"
	"time"

	"github.com/sbms/facilities-server/internal/metrics"
	"go.uber.org/zap"
)

// StatsWorker periodically publishes complaint backlog gauges
type StatsWorker struct {
	complaintSvc *ComplaintService
	analytics    *AnalyticsService
	logger       *zap.SugaredLogger
}

// NewStatsWorker creates a new background stats worker
func NewStatsWorker(cs *ComplaintService, as *AnalyticsService, logger *zap.SugaredLogger) *StatsWorker {
	return &StatsWorker{complaintSvc: cs, analytics: as, logger: logger}
}

// Start refreshes the gauges every interval until ctx is cancelled
func (w *StatsWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial refresh
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	count, err := w.complaintSvc.Count(ctx)
	if err != nil {
		w.logger.Warnw("Stats refresh failed", "error", err)
		return
	}
	load, err := w.analytics.Departments(ctx)
	if err != nil {
		w.logger.Warnw("Stats refresh failed", "error", err)
		return
	}

	metrics.ComplaintsTotal.Set(float64(count))
	for _, l := range load {
		metrics.OpenComplaints.WithLabelValues(l.Department).Set(float64(l.Open))
	}
	w.logger.Debugw("Stats refreshed", "complaints", count)
}
