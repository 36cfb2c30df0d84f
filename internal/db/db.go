// Package db provides PostgreSQL-backed repository implementations for the
// notification configuration store and tenant bundle overrides. Repositories
// accept a DBTX interface satisfied by both *pgxpool.Pool (normal queries)
// and pgx.Tx (transactional execution).
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
// Repositories accept this so the same code works inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB extends DBTX with transaction support. Satisfied by *pgxpool.Pool.
// The config repository needs it for the atomic replace-all-for-account
// operation.
type DB interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}
