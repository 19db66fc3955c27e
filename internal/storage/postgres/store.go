// Package postgres implements storage.Store on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sbms/facilities-server/internal/apperr"
	"github.com/sbms/facilities-server/internal/storage"
)

// foreign_key_violation
const codeForeignKeyViolation = "23503"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL-backed storage.Store.
type Store struct {
	db   querier
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// InTx runs fn inside a transaction. Nested calls become savepoints.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{db: tx, pool: s.pool})
	})
	return classify(err, "transaction")
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return classify(s.pool.Ping(ctx), "ping")
}

// classify maps driver errors onto apperr kinds. Errors that already carry
// a kind pass through unchanged.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	var (
		verr   *apperr.ValidationError
		pgErr  *pgconn.PgError
		netErr net.Error
		conErr *pgconn.ConnectError
	)
	switch {
	case errors.As(err, &verr), errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrPermissionDenied), errors.Is(err, apperr.ErrConnectivity):
		return err
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFoundf("%s", what)
	case errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation:
		return fmt.Errorf("%s: referenced row (%s): %w", what, pgErr.ConstraintName, apperr.ErrNotFound)
	case errors.As(err, &conErr), errors.As(err, &netErr), pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", what, apperr.ErrConnectivity, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
