package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case *[]string:
			*p = r.values[i].([]string)
		case *string:
			*p = r.values[i].(string)
		case **string:
			if r.values[i] == nil {
				*p = nil
			} else {
				s := r.values[i].(string)
				*p = &s
			}
		}
	}
	return nil
}

// fakeConn answers QueryRow calls from a queue of rows.
type fakeConn struct {
	rows    []*fakeRow
	queries []string
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgbundle.Row {
	c.queries = append(c.queries, sql)
	row := c.rows[0]
	c.rows = c.rows[1:]
	return row
}

func TestLatestStatus(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conn := &fakeConn{rows: []*fakeRow{
		{values: []any{true}},
		{values: []any{at, []string{"a", "b"}, []string{"a"}, []string{"b"}, "partial", "1 of 2 extensions created"}},
	}}

	row, err := LatestStatus(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, at, row.InitializedAt)
	assert.Equal(t, StatusPartial, row.Status)
	assert.Equal(t, []string{"b"}, row.Failed)
	assert.Equal(t, "1 of 2 extensions created", row.Message)
	assert.Contains(t, conn.queries[1], "ORDER BY initialized_at DESC")
}

func TestLatestStatus_MissingTable(t *testing.T) {
	conn := &fakeConn{rows: []*fakeRow{{values: []any{false}}}}
	_, err := LatestStatus(context.Background(), conn)
	assert.True(t, errors.Is(err, ErrNoStatus))
}

func TestLatestStatus_EmptyTable(t *testing.T) {
	conn := &fakeConn{rows: []*fakeRow{{values: []any{true}}, {err: pgx.ErrNoRows}}}
	_, err := LatestStatus(context.Background(), conn)
	assert.True(t, errors.Is(err, ErrNoStatus))
}
