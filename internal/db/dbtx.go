package db

import (
	"context"
	"database/sql"
)

// DBTX is what repositories run their statements against: a plain *sql.DB
// for standalone reads, or the *sql.Tx handed out by UnitOfWork when a task
// write and its history entries must commit together.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
