package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// PoolAdapter adapts *pgxpool.Pool to pgbundle.DBConnection.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter wraps pool.
func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

// Exec executes a statement without returning any rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgbundle.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Close closes every connection in the pool.
func (p *PoolAdapter) Close() {
	p.pool.Close()
}

var _ pgbundle.DBConnection = (*PoolAdapter)(nil)
