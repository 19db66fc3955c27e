package memory

import (
	"context"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
)

func (s *Store) InsertActivity(_ context.Context, entry *models.ActivityLogEntry) error {
	defer s.lock()()
	if _, ok := s.db.t.complaints[entry.ComplaintID]; !ok {
		return apperr.NotFoundf("insert activity log: complaint %d", entry.ComplaintID)
	}
	s.db.t.activitySeq++
	s.db.t.activity = append(s.db.t.activity, models.ActivityLog{
		ID:                s.db.t.activitySeq,
		ComplaintID:       entry.ComplaintID,
		ActivityType:      entry.ActivityType,
		ActionDescription: entry.ActionDescription,
		Actor:             entry.Actor,
		CreatedAt:         s.db.t.stamp(),
	})
	return nil
}

func (s *Store) ListActivity(_ context.Context, complaintID int64, limit int) ([]models.ActivityLog, error) {
	defer s.lock()()
	out := make([]models.ActivityLog, 0)
	for i := len(s.db.t.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if s.db.t.activity[i].ComplaintID == complaintID {
			out = append(out, s.db.t.activity[i])
		}
	}
	return out, nil
}
