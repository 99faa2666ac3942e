// Package postgres implements domain.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/repository/postgres/migrations"
)

// DB wraps a pgx connection pool and hands out repositories bound to it.
type DB struct {
	Pool *pgxpool.Pool
}

var _ domain.Store = (*DB)(nil)

// New connects to the database at connString and verifies the connection.
func New(ctx context.Context, connString string) (*DB, error) {
	if connString == "" {
		return nil, fmt.Errorf("database url not configured")
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate applies the schema. Every statement is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Pool.Exec(ctx, migrations.Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close releases every pooled connection.
func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}

func (d *DB) Users() domain.UserRepository {
	return &userRepo{pool: d.Pool}
}

func (d *DB) Roles() domain.RoleRepository {
	return &roleRepo{pool: d.Pool}
}

func (d *DB) Meetings() domain.MeetingRepository {
	return &meetingRepo{pool: d.Pool}
}

func (d *DB) FileStore() domain.FileStore {
	return &fileStore{pool: d.Pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
