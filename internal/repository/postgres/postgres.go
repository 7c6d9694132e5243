// Package postgres implements the repository interfaces on PostgreSQL via pgx.
//
// Queries go through the small Querier interface rather than *pgxpool.Pool
// directly, so unit tests can substitute pgxmock while production code uses
// the pool.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Querier is the subset of *pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements repository.Store on PostgreSQL.
type Storage struct {
	db    Querier
	close func()
}

// New connects to PostgreSQL, verifies the connection and applies pending
// migrations.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: pool, close: pool.Close}, nil
}

// NewWithQuerier wraps an existing querier. The caller keeps ownership of
// its lifecycle; Close is a no-op.
func NewWithQuerier(q Querier) *Storage {
	return &Storage{db: q, close: func() {}}
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	s.close()
	return nil
}

// migrate runs the embedded goose migrations through a database/sql handle
// borrowed from the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
