package services

import (
	"context"
	"fmt"

	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"go.uber.org/zap"
)

// DefaultActivityLimit caps activity listings when the caller gives no limit.
const DefaultActivityLimit = 50

// ActivityLogService records and reads the complaint activity log
type ActivityLogService struct {
	store  storage.ActivityStore
	logger *zap.SugaredLogger
}

// NewActivityLogService creates a new activity log service
func NewActivityLogService(store storage.ActivityStore, logger *zap.SugaredLogger) *ActivityLogService {
	return &ActivityLogService{store: store, logger: logger}
}

// Log records a workflow event
func (s *ActivityLogService) Log(ctx context.Context, entry *models.ActivityLogEntry) error {
	if err := s.store.InsertActivity(ctx, entry); err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}

	s.logger.Infow("Activity logged",
		"complaint_id", entry.ComplaintID,
		"actor", entry.Actor,
		"type", entry.ActivityType,
		"action", entry.ActionDescription,
	)
	return nil
}

// record logs entry and only warns when that fails. The workflow change it
// describes has already been committed.
func (s *ActivityLogService) record(ctx context.Context, entry *models.ActivityLogEntry) {
	if s == nil {
		return
	}
	if err := s.Log(ctx, entry); err != nil {
		s.logger.Warnw("Failed to record activity",
			"complaint_id", entry.ComplaintID,
			"type", entry.ActivityType,
			"error", err,
		)
	}
}

// FetchByComplaint returns the newest events of one complaint
func (s *ActivityLogService) FetchByComplaint(ctx context.Context, complaintID int64, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	logs, err := s.store.ListActivity(ctx, complaintID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity for complaint %d: %w", complaintID, err)
	}
	return logs, nil
}
