// Package services contains business logic layers.
// Services are called by handlers and interact with storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/metrics"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
	"go.uber.org/zap"
)

// Upload is an optional image attached to a report.
type Upload struct {
	Filename string
	Content  io.Reader
}

// FileStore persists uploaded images and returns their path.
type FileStore interface {
	Store(ctx context.Context, r io.Reader, originalName string) (string, error)
	Remove(path string) error
}

// ComplaintService handles complaint business logic
type ComplaintService struct {
	store    storage.Store
	router   *DepartmentRouter
	ledger   *RewardsLedger
	files    FileStore
	activity *ActivityLogService
	logger   *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(store storage.Store, router *DepartmentRouter, ledger *RewardsLedger, files FileStore, activity *ActivityLogService, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{
		store:    store,
		router:   router,
		ledger:   ledger,
		files:    files,
		activity: activity,
		logger:   logger,
	}
}

// Submit files a complaint for actor, routes it to the department officer
// and credits the reporter one point. A failed image write or a failed
// award does not fail the submission.
func (s *ComplaintService) Submit(ctx context.Context, actor models.Actor, sub models.ComplaintSubmission, image *Upload) (*models.Complaint, error) {
	if err := validateStruct(sub); err != nil {
		return nil, err
	}

	routing, err := s.router.Route(ctx, sub.Category)
	if err != nil {
		return nil, fmt.Errorf("submit complaint: %w", err)
	}

	c := &models.Complaint{
		Title:       sub.Title,
		Description: sub.Description,
		Category:    sub.Category,
		Priority:    sub.Priority,
		Status:      models.StatusPendingReview,
		ReporterID:  actor.ID,
		AssignedTo:  routing.OfficerID,
		ImagePath:   s.storeImage(ctx, image),
	}
	if err := s.store.InsertComplaint(ctx, c); err != nil {
		s.discardImage(c.ImagePath)
		return nil, fmt.Errorf("insert complaint: %w", err)
	}
	c.Reporter = actor.Username

	if err := s.ledger.Award(ctx, s.store, actor.ID, SubmissionPoints, ReasonSubmission); err != nil {
		s.logger.Errorw("Failed to award submission points",
			"complaint_id", c.ID,
			"user_id", actor.ID,
			"error", err,
		)
	} else {
		s.ledger.Settle(ctx)
	}

	department := "none"
	if routing.Department != nil {
		department = *routing.Department
	}
	metrics.ComplaintsSubmitted.WithLabelValues(department).Inc()

	action := "Complaint submitted"
	if routing.OfficerID != nil {
		action = fmt.Sprintf("Complaint submitted and routed to %s", department)
	}
	s.activity.record(ctx, &models.ActivityLogEntry{
		ComplaintID:       c.ID,
		ActivityType:      models.ActivitySubmission,
		ActionDescription: action,
		Actor:             actor.Username,
	})

	s.logger.Infow("Complaint submitted",
		"id", c.ID,
		"category", c.Category,
		"department", department,
		"assigned_to", c.AssignedTo,
		"has_image", c.ImagePath != nil,
	)
	return c, nil
}

func (s *ComplaintService) storeImage(ctx context.Context, image *Upload) *string {
	if image == nil || s.files == nil {
		return nil
	}
	path, err := s.files.Store(ctx, image.Content, image.Filename)
	if err != nil {
		metrics.ImageStoreFailures.Inc()
		s.logger.Warnw("Failed to store complaint image, continuing without it",
			"filename", image.Filename,
			"error", err,
		)
		return nil
	}
	return &path
}

func (s *ComplaintService) discardImage(path *string) {
	if path == nil {
		return
	}
	if err := s.files.Remove(*path); err != nil {
		s.logger.Warnw("Failed to remove orphaned image", "path", *path, "error", err)
	}
}

// UpdateStatus moves a complaint to upd.Status. The first transition to
// Resolved credits the reporter exactly once, in the same transaction as
// the status change.
func (s *ComplaintService) UpdateStatus(ctx context.Context, id int64, upd models.ComplaintStatusUpdate, actor models.Actor) (*models.Complaint, error) {
	if err := checkStatusUpdate(upd, actor); err != nil {
		return nil, err
	}

	changes := storage.ComplaintChanges{Status: upd.Status, AssignedTo: upd.AssignedTo}
	if upd.Notes != nil {
		if actor.Role == models.RoleOfficer {
			changes.OfficerNotes = upd.Notes
		} else {
			changes.AdminNotes = upd.Notes
		}
	}

	var reporterID int64
	awarded := false
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		current, err := tx.GetComplaint(ctx, id)
		if err != nil {
			return err
		}
		if upd.AssignedTo != nil {
			if err := checkAssignee(ctx, tx, *upd.AssignedTo); err != nil {
				return err
			}
		}

		if err := tx.UpdateComplaint(ctx, id, changes); err != nil {
			return err
		}
		if upd.Status != models.StatusResolved {
			return nil
		}

		first, err := tx.MarkPointsAwarded(ctx, id)
		if err != nil || !first {
			return err
		}
		if err := s.ledger.Award(ctx, tx, current.ReporterID, ResolutionPoints, ReasonResolution); err != nil {
			return err
		}
		reporterID, awarded = current.ReporterID, true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	metrics.ComplaintStatusUpdates.WithLabelValues(string(upd.Status)).Inc()
	s.activity.record(ctx, &models.ActivityLogEntry{
		ComplaintID:       id,
		ActivityType:      models.ActivityStatusChange,
		ActionDescription: fmt.Sprintf("Status changed to %s", upd.Status),
		Actor:             actor.Username,
	})
	if awarded {
		s.ledger.Settle(ctx)
		s.activity.record(ctx, &models.ActivityLogEntry{
			ComplaintID:       id,
			ActivityType:      models.ActivityPointsAward,
			ActionDescription: fmt.Sprintf("Reporter credited %d points for resolution", ResolutionPoints),
			Actor:             "SYSTEM",
		})
	}

	s.logger.Infow("Complaint status updated",
		"id", id,
		"status", upd.Status,
		"actor", actor.Username,
		"resolution_award", awarded,
		"reporter_id", reporterID,
	)

	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload complaint %d: %w", id, err)
	}
	return c, nil
}

func checkStatusUpdate(upd models.ComplaintStatusUpdate, actor models.Actor) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleOfficer {
		return permissionDenied("%s accounts cannot update complaints", actor.Role)
	}
	if !upd.Status.Valid() {
		return invalidField("status", fmt.Sprintf("unknown complaint status %q", upd.Status))
	}
	return nil
}

func checkAssignee(ctx context.Context, users storage.UserStore, id int64) error {
	u, err := users.GetUser(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return invalidField("assigned_to", fmt.Sprintf("no user with id %d", id))
	}
	if err != nil {
		return err
	}
	if u.Role != models.RoleOfficer {
		return invalidField("assigned_to", fmt.Sprintf("user %d is not an officer", id))
	}
	return nil
}

// List returns the complaints visible to actor, newest first: everything
// for admins, assigned work for officers and own reports for students.
func (s *ComplaintService) List(ctx context.Context, actor models.Actor) ([]models.Complaint, error) {
	var f storage.ComplaintFilter
	id := actor.ID
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleOfficer:
		f.AssignedTo = &id
	case models.RoleStudent:
		f.ReporterID = &id
	default:
		return nil, permissionDenied("unknown role %q", actor.Role)
	}

	complaints, err := s.store.ListComplaints(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// Get returns one complaint if actor may see it.
func (s *ComplaintService) Get(ctx context.Context, id int64, actor models.Actor) (*models.Complaint, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	if !canView(actor, c) {
		return nil, permissionDenied("complaint %d", id)
	}
	return c, nil
}

// Activity returns the event log of a complaint actor may see.
func (s *ComplaintService) Activity(ctx context.Context, id int64, actor models.Actor, limit int) ([]models.ActivityLog, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.activity.FetchByComplaint(ctx, id, limit)
}

// Count returns the total number of complaints
func (s *ComplaintService) Count(ctx context.Context) (int64, error) {
	n, err := s.store.CountComplaints(ctx)
	if err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return n, nil
}

func canView(actor models.Actor, c *models.Complaint) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleOfficer:
		return true
	case models.RoleStudent:
		return c.ReporterID == actor.ID
	}
	return false
}
