package repository

import (
	"context"
	"database/sql"
)

// Querier is the subset of database operations the repositories need.
// Both *database.Postgres and *sql.Tx satisfy it, so a repository can
// be rebound to a transaction when a flow must be atomic.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
