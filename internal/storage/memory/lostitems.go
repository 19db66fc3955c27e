package memory

import (
	"context"
	"sort"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
)

func cloneLostItem(it *models.LostItem) *models.LostItem {
	c := *it
	c.AdminNotes = cloneString(it.AdminNotes)
	c.ImagePath = cloneString(it.ImagePath)
	c.Reporter = ""
	return &c
}

func (s *Store) InsertLostItem(_ context.Context, item *models.LostItem) error {
	defer s.lock()()
	if _, ok := s.db.t.users[item.ReporterID]; !ok {
		return apperr.NotFoundf("insert lost item: reporter %d", item.ReporterID)
	}
	s.db.t.lostItemSeq++
	item.ID = s.db.t.lostItemSeq
	item.CreatedAt = s.db.t.stamp()
	s.db.t.lostItems[item.ID] = cloneLostItem(item)
	return nil
}

func (s *Store) UpdateLostItem(_ context.Context, id int64, status models.LostItemStatus, notes *string) error {
	defer s.lock()()
	it, ok := s.db.t.lostItems[id]
	if !ok {
		return apperr.NotFoundf("lost item %d", id)
	}
	it.Status = status
	it.AdminNotes = cloneString(notes)
	return nil
}

func (s *Store) ListLostItems(_ context.Context, reporterID *int64) ([]models.LostItem, error) {
	defer s.lock()()
	out := make([]models.LostItem, 0)
	for _, it := range s.db.t.lostItems {
		if reporterID != nil && it.ReporterID != *reporterID {
			continue
		}
		c := cloneLostItem(it)
		if u, ok := s.db.t.users[it.ReporterID]; ok {
			c.Reporter = u.Username
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
