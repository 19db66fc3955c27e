package services

import (
	"context"
	"fmt"

	"github.com/sbms/facilities-server/internal/metrics"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"go.uber.org/zap"
)

// LostItemService handles lost-and-found reports
type LostItemService struct {
	store  storage.LostItemStore
	files  FileStore
	logger *zap.SugaredLogger
}

// NewLostItemService creates a new lost item service
func NewLostItemService(store storage.LostItemStore, files FileStore, logger *zap.SugaredLogger) *LostItemService {
	return &LostItemService{store: store, files: files, logger: logger}
}

// Report records a lost item for actor. No points are awarded.
func (s *LostItemService) Report(ctx context.Context, actor models.Actor, rep models.LostItemReport, image *Upload) (*models.LostItem, error) {
	if err := validateStruct(rep); err != nil {
		return nil, err
	}

	item := &models.LostItem{
		ItemName:    rep.ItemName,
		Description: rep.Description,
		LostTime:    rep.LostTime,
		LostPlace:   rep.LostPlace,
		Status:      models.ItemLost,
		ReporterID:  actor.ID,
	}
	if image != nil && s.files != nil {
		path, err := s.files.Store(ctx, image.Content, image.Filename)
		if err != nil {
			metrics.ImageStoreFailures.Inc()
			s.logger.Warnw("Failed to store lost item image, continuing without it",
				"filename", image.Filename,
				"error", err,
			)
		} else {
			item.ImagePath = &path
		}
	}

	if err := s.store.InsertLostItem(ctx, item); err != nil {
		if item.ImagePath != nil {
			_ = s.files.Remove(*item.ImagePath)
		}
		return nil, fmt.Errorf("insert lost item: %w", err)
	}
	item.Reporter = actor.Username

	metrics.LostItemsReported.Inc()
	s.logger.Infow("Lost item reported",
		"id", item.ID,
		"reporter", actor.Username,
		"place", item.LostPlace,
	)
	return item, nil
}

// UpdateStatus overwrites the status and admin notes of a report.
func (s *LostItemService) UpdateStatus(ctx context.Context, id int64, upd models.LostItemStatusUpdate, actor models.Actor) error {
	if actor.Role != models.RoleAdmin {
		return permissionDenied("only admins can update lost items")
	}
	if !upd.Status.Valid() {
		return invalidField("status", fmt.Sprintf("unknown lost item status %q", upd.Status))
	}

	if err := s.store.UpdateLostItem(ctx, id, upd.Status, upd.Notes); err != nil {
		return fmt.Errorf("update lost item: %w", err)
	}

	metrics.LostItemStatusUpdates.WithLabelValues(string(upd.Status)).Inc()
	s.logger.Infow("Lost item status updated",
		"id", id,
		"status", upd.Status,
		"actor", actor.Username,
	)
	return nil
}

// List returns a student's own reports, or every report for other roles.
func (s *LostItemService) List(ctx context.Context, actor models.Actor) ([]models.LostItem, error) {
	var reporter *int64
	if actor.Role == models.RoleStudent {
		id := actor.ID
		reporter = &id
	}
	items, err := s.store.ListLostItems(ctx, reporter)
	if err != nil {
		return nil, fmt.Errorf("list lost items: %w", err)
	}
	return items, nil
}
