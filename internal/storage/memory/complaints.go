package memory

import (
	"context"
	"sort"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
)

func cloneComplaint(c *models.Complaint) *models.Complaint {
	cp := *c
	cp.AssignedTo = cloneInt(c.AssignedTo)
	cp.AdminNotes = cloneString(c.AdminNotes)
	cp.OfficerNotes = cloneString(c.OfficerNotes)
	cp.ImagePath = cloneString(c.ImagePath)
	cp.AssignedToName = nil
	cp.Reporter = ""
	return &cp
}

// joined fills the reporter and assignee names the way the SQL listing does.
func (s *Store) joined(c *models.Complaint) models.Complaint {
	out := *cloneComplaint(c)
	if u, ok := s.db.t.users[c.ReporterID]; ok {
		out.Reporter = u.Username
	}
	if c.AssignedTo != nil {
		if u, ok := s.db.t.users[*c.AssignedTo]; ok {
			name := u.Username
			out.AssignedToName = &name
		}
	}
	return out
}

func (s *Store) InsertComplaint(_ context.Context, c *models.Complaint) error {
	defer s.lock()()
	if _, ok := s.db.t.users[c.ReporterID]; !ok {
		return apperr.NotFoundf("insert complaint: reporter %d", c.ReporterID)
	}
	if c.AssignedTo != nil {
		if _, ok := s.db.t.users[*c.AssignedTo]; !ok {
			return apperr.NotFoundf("insert complaint: assignee %d", *c.AssignedTo)
		}
	}
	s.db.t.complaintSeq++
	c.ID = s.db.t.complaintSeq
	c.CreatedAt = s.db.t.stamp()
	s.db.t.complaints[c.ID] = cloneComplaint(c)
	return nil
}

func (s *Store) GetComplaint(_ context.Context, id int64) (*models.Complaint, error) {
	defer s.lock()()
	c, ok := s.db.t.complaints[id]
	if !ok {
		return nil, apperr.NotFoundf("complaint %d", id)
	}
	out := s.joined(c)
	return &out, nil
}

func (s *Store) UpdateComplaint(_ context.Context, id int64, ch storage.ComplaintChanges) error {
	defer s.lock()()
	c, ok := s.db.t.complaints[id]
	if !ok {
		return apperr.NotFoundf("complaint %d", id)
	}
	if ch.AssignedTo != nil {
		if _, ok := s.db.t.users[*ch.AssignedTo]; !ok {
			return apperr.NotFoundf("update complaint: assignee %d", *ch.AssignedTo)
		}
		c.AssignedTo = cloneInt(ch.AssignedTo)
	}
	c.Status = ch.Status
	if ch.AdminNotes != nil {
		c.AdminNotes = cloneString(ch.AdminNotes)
	}
	if ch.OfficerNotes != nil {
		c.OfficerNotes = cloneString(ch.OfficerNotes)
	}
	return nil
}

func (s *Store) MarkPointsAwarded(_ context.Context, id int64) (bool, error) {
	defer s.lock()()
	c, ok := s.db.t.complaints[id]
	if !ok || c.PointsAwarded {
		return false, nil
	}
	c.PointsAwarded = true
	return true, nil
}

func (s *Store) ListComplaints(_ context.Context, f storage.ComplaintFilter) ([]models.Complaint, error) {
	defer s.lock()()
	out := make([]models.Complaint, 0)
	for _, c := range s.db.t.complaints {
		if f.ReporterID != nil && c.ReporterID != *f.ReporterID {
			continue
		}
		if f.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *f.AssignedTo) {
			continue
		}
		out = append(out, s.joined(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CountComplaints(_ context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.db.t.complaints)), nil
}

func (s *Store) CategoryStats(_ context.Context) ([]models.CategoryDistribution, error) {
	defer s.lock()()
	byCategory := make(map[string]*models.CategoryDistribution)
	for _, c := range s.db.t.complaints {
		d, ok := byCategory[c.Category]
		if !ok {
			d = &models.CategoryDistribution{Category: c.Category}
			byCategory[c.Category] = d
		}
		d.Count++
		if c.Status == models.StatusPendingReview || c.Status == models.StatusInProgress {
			d.Open++
		}
	}
	out := make([]models.CategoryDistribution, 0, len(byCategory))
	for _, d := range byCategory {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
