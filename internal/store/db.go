package store

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql that the stores need. Both *sql.DB and
// *sql.Tx satisfy it, so a store built over a connection pool can be rebound
// to a transaction with WithTx and run the same queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
