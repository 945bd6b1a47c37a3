package pgbundle

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations needed by the live verifier
// and the bootstrap applier. It decouples them from pgx pool types so tests
// can substitute scripted fakes.
//
// Thread-Safety: Implementations follow their underlying connection's
// guarantees. Pool-backed implementations are safe for concurrent use.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Scan is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Row is the result of QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}
