// Package storage declares the persistence contract the workflow services
// depend on. Implementations live in the postgres and memory subpackages.
package storage

import (
	"context"

	"github.com/sbms/facilities-server/internal/models"
)

// UserStore reads accounts and mutates point balances.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// CreateUser inserts u unless the username is taken. It reports whether a row was created.
	CreateUser(ctx context.Context, u *models.User) (bool, error)
	// AddPoints increments the balance of user id; unknown users yield apperr.ErrNotFound.
	AddPoints(ctx context.Context, id int64, amount int) error
	// OfficerForDepartment returns the lowest-id officer of the department, or nil.
	OfficerForDepartment(ctx context.Context, department string) (*int64, error)
	ListOfficers(ctx context.Context) ([]models.User, error)
	// TopStudents ranks students by points descending, then username ascending.
	TopStudents(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// ComplaintChanges holds the mutable complaint columns. Nil pointers leave
// the column untouched.
type ComplaintChanges struct {
	Status       models.ComplaintStatus
	AssignedTo   *int64
	AdminNotes   *string
	OfficerNotes *string
}

// ComplaintFilter narrows a listing. Nil fields do not filter.
type ComplaintFilter struct {
	ReporterID *int64
	AssignedTo *int64
}

type ComplaintStore interface {
	// InsertComplaint persists c and fills in its ID and CreatedAt.
	InsertComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id int64) (*models.Complaint, error)
	// UpdateComplaint applies ch and locks the row until the enclosing transaction ends.
	UpdateComplaint(ctx context.Context, id int64, ch ComplaintChanges) error
	// MarkPointsAwarded flips points_awarded from false to true. It reports
	// false when the flag was already set.
	MarkPointsAwarded(ctx context.Context, id int64) (bool, error)
	// ListComplaints returns matches newest first.
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error)
	CountComplaints(ctx context.Context) (int64, error)
	CategoryStats(ctx context.Context) ([]models.CategoryDistribution, error)
}

type LostItemStore interface {
	InsertLostItem(ctx context.Context, item *models.LostItem) error
	// UpdateLostItem overwrites status and admin notes.
	UpdateLostItem(ctx context.Context, id int64, status models.LostItemStatus, notes *string) error
	// ListLostItems returns reports newest first, all of them when reporterID is nil.
	ListLostItems(ctx context.Context, reporterID *int64) ([]models.LostItem, error)
}

type ActivityStore interface {
	InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error
	ListActivity(ctx context.Context, complaintID int64, limit int) ([]models.ActivityLog, error)
}

// Store is the full persistence surface.
type Store interface {
	UserStore
	ComplaintStore
	LostItemStore
	ActivityStore

	// InTx runs fn against a transactional view of the store. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
