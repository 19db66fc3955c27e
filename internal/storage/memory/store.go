// Package memory is an in-process storage.Store used for tests and local
// development without PostgreSQL. Transactions hold a single store-wide lock
// and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
)

type tables struct {
	users      map[int64]*models.User
	complaints map[int64]*models.Complaint
	lostItems  map[int64]*models.LostItem
	activity   []models.ActivityLog

	userSeq, complaintSeq, lostItemSeq, activitySeq int64
	lastStamp                                       time.Time
}

func newTables() *tables {
	return &tables{
		users:      make(map[int64]*models.User),
		complaints: make(map[int64]*models.Complaint),
		lostItems:  make(map[int64]*models.LostItem),
	}
}

func (t *tables) clone() *tables {
	c := *t
	c.users = make(map[int64]*models.User, len(t.users))
	for id, u := range t.users {
		c.users[id] = cloneUser(u)
	}
	c.complaints = make(map[int64]*models.Complaint, len(t.complaints))
	for id, cp := range t.complaints {
		c.complaints[id] = cloneComplaint(cp)
	}
	c.lostItems = make(map[int64]*models.LostItem, len(t.lostItems))
	for id, it := range t.lostItems {
		c.lostItems[id] = cloneLostItem(it)
	}
	c.activity = append([]models.ActivityLog(nil), t.activity...)
	return &c
}

// stamp returns a strictly increasing creation time.
func (t *tables) stamp() time.Time {
	now := time.Now().UTC()
	if !now.After(t.lastStamp) {
		now = t.lastStamp.Add(time.Microsecond)
	}
	t.lastStamp = now
	return now
}

type db struct {
	mu sync.Mutex
	t  *tables
}

// Store is the in-memory storage.Store.
type Store struct {
	db   *db
	inTx bool
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{db: &db{t: newTables()}}
}

// lock takes the store lock unless the caller already holds it through InTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

// InTx serializes fn against every other operation on the store. Nested
// calls share the outer transaction.
func (s *Store) InTx(_ context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.t.clone()
	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.t = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// GetUser fetches a user by id
func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	defer s.lock()()
	u, ok := s.db.t.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user %d", id)
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	defer s.lock()()
	for _, u := range s.db.t.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, apperr.NotFoundf("user %q", username)
}

func (s *Store) CreateUser(_ context.Context, u *models.User) (bool, error) {
	defer s.lock()()
	for _, existing := range s.db.t.users {
		if existing.Username == u.Username {
			return false, nil
		}
	}
	s.db.t.userSeq++
	u.ID = s.db.t.userSeq
	s.db.t.users[u.ID] = cloneUser(u)
	return true, nil
}

func (s *Store) AddPoints(_ context.Context, id int64, amount int) error {
	defer s.lock()()
	u, ok := s.db.t.users[id]
	if !ok {
		return apperr.NotFoundf("user %d", id)
	}
	u.Points += amount
	return nil
}

func (s *Store) OfficerForDepartment(_ context.Context, department string) (*int64, error) {
	defer s.lock()()
	var found *int64
	for id, u := range s.db.t.users {
		if u.Role != models.RoleOfficer || u.Department == nil || *u.Department != department {
			continue
		}
		if found == nil || id < *found {
			id := id
			found = &id
		}
	}
	return found, nil
}

func (s *Store) ListOfficers(_ context.Context) ([]models.User, error) {
	defer s.lock()()
	officers := make([]models.User, 0)
	for _, u := range s.db.t.users {
		if u.Role == models.RoleOfficer {
			officers = append(officers, *cloneUser(u))
		}
	}
	sort.Slice(officers, func(i, j int) bool {
		di, dj := deref(officers[i].Department), deref(officers[j].Department)
		if di != dj {
			return di < dj
		}
		return officers[i].ID < officers[j].ID
	})
	return officers, nil
}

func (s *Store) TopStudents(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	defer s.lock()()
	entries := make([]models.LeaderboardEntry, 0)
	for _, u := range s.db.t.users {
		if u.Role == models.RoleStudent {
			entries = append(entries, models.LeaderboardEntry{Username: u.Username, Points: u.Points, Role: u.Role})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Username < entries[j].Username
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Department = cloneString(u.Department)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
