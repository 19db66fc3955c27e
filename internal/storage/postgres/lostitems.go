package postgres

import (
	"context"

	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
)

// InsertLostItem stores a new lost-item report
func (s *Store) InsertLostItem(ctx context.Context, item *models.LostItem) error {
	query := `
		INSERT INTO lost_items (item_name, description, lost_time, lost_place, status, user_id, image_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		item.ItemName, item.Description, item.LostTime, item.LostPlace,
		item.Status, item.ReporterID, item.ImagePath,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return classify(err, "insert lost item")
	}
	return nil
}

// UpdateLostItem overwrites status and admin notes
func (s *Store) UpdateLostItem(ctx context.Context, id int64, status models.LostItemStatus, notes *string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE lost_items SET status = $2, admin_notes = $3 WHERE id = $1`, id, status, notes)
	if err != nil {
		return classify(err, "update lost item")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("lost item %d", id)
	}
	return nil
}

// ListLostItems returns lost-item reports, newest first
func (s *Store) ListLostItems(ctx context.Context, reporterID *int64) ([]models.LostItem, error) {
	query := `
		SELECT l.id, l.item_name, l.description, l.lost_time, l.lost_place, l.status, l.created_at,
			l.user_id, l.admin_notes, l.image_path, COALESCE(u.username, '')
		FROM lost_items l
		LEFT JOIN users u ON l.user_id = u.id
		WHERE ($1::BIGINT IS NULL OR l.user_id = $1)
		ORDER BY l.created_at DESC, l.id DESC
	`
	rows, err := s.db.Query(ctx, query, reporterID)
	if err != nil {
		return nil, classify(err, "list lost items")
	}
	defer rows.Close()

	items := make([]models.LostItem, 0)
	for rows.Next() {
		var it models.LostItem
		if err := rows.Scan(&it.ID, &it.ItemName, &it.Description, &it.LostTime, &it.LostPlace,
			&it.Status, &it.CreatedAt, &it.ReporterID, &it.AdminNotes, &it.ImagePath, &it.Reporter); err != nil {
			return nil, classify(err, "scan lost item")
		}
		items = append(items, it)
	}
	return items, classify(rows.Err(), "list lost items")
}
