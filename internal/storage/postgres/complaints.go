package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/storage"
)

const complaintSelect = `
	SELECT c.id, c.title, c.description, c.category, c.priority, c.status, c.created_at,
		c.user_id, c.assigned_to, c.admin_notes, c.officer_notes, c.image_path, c.points_awarded,
		COALESCE(u1.username, ''), u2.username
	FROM complaints c
	LEFT JOIN users u1 ON c.user_id = u1.id
	LEFT JOIN users u2 ON c.assigned_to = u2.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status, &c.CreatedAt,
		&c.ReporterID, &c.AssignedTo, &c.AdminNotes, &c.OfficerNotes, &c.ImagePath, &c.PointsAwarded,
		&c.Reporter, &c.AssignedToName)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertComplaint stores a new complaint
func (s *Store) InsertComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (title, description, category, priority, status, user_id, assigned_to, image_path, points_awarded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		c.Title, c.Description, c.Category, c.Priority, c.Status,
		c.ReporterID, c.AssignedTo, c.ImagePath, c.PointsAwarded,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return classify(err, "insert complaint")
	}
	return nil
}

// GetComplaint fetches one complaint with reporter and assignee names
func (s *Store) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	c, err := scanComplaint(s.db.QueryRow(ctx, complaintSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, classify(err, fmt.Sprintf("complaint %d", id))
	}
	return c, nil
}

// UpdateComplaint applies a status change. The UPDATE holds the row lock
// until the surrounding transaction finishes.
func (s *Store) UpdateComplaint(ctx context.Context, id int64, ch storage.ComplaintChanges) error {
	query := `
		UPDATE complaints
		SET status = $2,
			assigned_to = COALESCE($3, assigned_to),
			admin_notes = COALESCE($4, admin_notes),
			officer_notes = COALESCE($5, officer_notes)
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, id, ch.Status, ch.AssignedTo, ch.AdminNotes, ch.OfficerNotes)
	if err != nil {
		return classify(err, "update complaint")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("complaint %d", id)
	}
	return nil
}

// MarkPointsAwarded sets points_awarded only if it is still false
func (s *Store) MarkPointsAwarded(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE complaints SET points_awarded = TRUE WHERE id = $1 AND points_awarded = FALSE`, id)
	if err != nil {
		return false, classify(err, "mark points awarded")
	}
	return tag.RowsAffected() == 1, nil
}

// ListComplaints returns complaints matching the filter, newest first
func (s *Store) ListComplaints(ctx context.Context, f storage.ComplaintFilter) ([]models.Complaint, error) {
	var (
		where []string
		args  []any
	)
	if f.ReporterID != nil {
		args = append(args, *f.ReporterID)
		where = append(where, fmt.Sprintf("c.user_id = $%d", len(args)))
	}
	if f.AssignedTo != nil {
		args = append(args, *f.AssignedTo)
		where = append(where, fmt.Sprintf("c.assigned_to = $%d", len(args)))
	}

	query := complaintSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list complaints")
	}
	defer rows.Close()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, classify(err, "scan complaint")
		}
		complaints = append(complaints, *c)
	}
	return complaints, classify(rows.Err(), "list complaints")
}

// CountComplaints returns the total number of complaints
func (s *Store) CountComplaints(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM complaints").Scan(&count)
	return count, classify(err, "count complaints")
}

// CategoryStats returns complaint totals and open counts per category
func (s *Store) CategoryStats(ctx context.Context) ([]models.CategoryDistribution, error) {
	query := `
		SELECT category, COUNT(*) AS count,
			COUNT(*) FILTER (WHERE status IN ($1, $2)) AS open
		FROM complaints
		GROUP BY category
		ORDER BY count DESC, category
	`
	rows, err := s.db.Query(ctx, query, models.StatusPendingReview, models.StatusInProgress)
	if err != nil {
		return nil, classify(err, "category stats")
	}
	defer rows.Close()

	cats := make([]models.CategoryDistribution, 0)
	for rows.Next() {
		var c models.CategoryDistribution
		if err := rows.Scan(&c.Category, &c.Count, &c.Open); err != nil {
			return nil, classify(err, "scan category stats")
		}
		cats = append(cats, c)
	}
	return cats, classify(rows.Err(), "category stats")
}
