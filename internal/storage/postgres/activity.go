package postgres

import (
	"context"

	"github.com/sbms/facilities-server/internal/models"
)

// InsertActivity records a workflow event
func (s *Store) InsertActivity(ctx context.Context, entry *models.ActivityLogEntry) error {
	query := `
		INSERT INTO activity_logs (complaint_id, activity_type, action_description, actor)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.Exec(ctx, query, entry.ComplaintID, entry.ActivityType, entry.ActionDescription, entry.Actor)
	return classify(err, "insert activity log")
}

// ListActivity returns the newest events of one complaint
func (s *Store) ListActivity(ctx context.Context, complaintID int64, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id, complaint_id, activity_type, action_description, actor, created_at
		FROM activity_logs
		WHERE complaint_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, complaintID, limit)
	if err != nil {
		return nil, classify(err, "list activity")
	}
	defer rows.Close()

	logs := make([]models.ActivityLog, 0)
	for rows.Next() {
		var log models.ActivityLog
		if err := rows.Scan(&log.ID, &log.ComplaintID, &log.ActivityType,
			&log.ActionDescription, &log.Actor, &log.CreatedAt); err != nil {
			return nil, classify(err, "scan activity")
		}
		logs = append(logs, log)
	}
	return logs, classify(rows.Err(), "list activity")
}
