package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/models"
)

const userColumns = `id, username, password, role, department, points`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.Department, &u.Points); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by id
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, classify(err, "user")
	}
	return u, nil
}

// GetUserByUsername fetches a user by login name
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, classify(err, "user")
	}
	return u, nil
}

// CreateUser inserts a user, skipping taken usernames
func (s *Store) CreateUser(ctx context.Context, u *models.User) (bool, error) {
	query := `
		INSERT INTO users (username, password, role, department, points)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`
	err := s.db.QueryRow(ctx, query, u.Username, u.Password, u.Role, u.Department, u.Points).Scan(&u.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err, "insert user")
	}
	return true, nil
}

// AddPoints increments a user's point balance
func (s *Store) AddPoints(ctx context.Context, id int64, amount int) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET points = points + $1 WHERE id = $2`, amount, id)
	if err != nil {
		return classify(err, "add points")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("user %d", id)
	}
	return nil
}

// OfficerForDepartment resolves the officer on duty for a department
func (s *Store) OfficerForDepartment(ctx context.Context, department string) (*int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM users WHERE role = $1 AND department = $2 ORDER BY id LIMIT 1`,
		models.RoleOfficer, department,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "officer lookup")
	}
	return &id, nil
}

// ListOfficers returns all officer accounts
func (s *Store) ListOfficers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY department, id`, models.RoleOfficer)
	if err != nil {
		return nil, classify(err, "list officers")
	}
	defer rows.Close()

	officers := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err, "scan officer")
		}
		officers = append(officers, *u)
	}
	return officers, classify(rows.Err(), "list officers")
}

// TopStudents returns the leaderboard
func (s *Store) TopStudents(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT username, points, role
		FROM users
		WHERE role = $1
		ORDER BY points DESC, username ASC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, models.RoleStudent, limit)
	if err != nil {
		return nil, classify(err, "leaderboard")
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Points, &e.Role); err != nil {
			return nil, classify(err, "scan leaderboard")
		}
		entries = append(entries, e)
	}
	return entries, classify(rows.Err(), "leaderboard")
}
