package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if r.values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(r.values[i])
		if target.Kind() == reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v)
			target.Set(p)
			continue
		}
		target.Set(v)
	}
	return nil
}

// scriptedConn answers each query with the row registered under the first
// matching substring.
type scriptedConn struct {
	answers []answer
	queries []string
}

type answer struct {
	match string
	row   fakeRow
}

func (c *scriptedConn) on(match string, values ...any) *scriptedConn {
	c.answers = append(c.answers, answer{match: match, row: fakeRow{values: values}})
	return c
}

func (c *scriptedConn) fail(match string, err error) *scriptedConn {
	c.answers = append(c.answers, answer{match: match, row: fakeRow{err: err}})
	return c
}

func (c *scriptedConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (c *scriptedConn) QueryRow(ctx context.Context, sql string, args ...any) pgbundle.Row {
	c.queries = append(c.queries, sql)
	for _, a := range c.answers {
		if strings.Contains(sql, a.match) {
			return a.row
		}
	}
	return fakeRow{err: fmt.Errorf("unscripted query: %s", sql)}
}

func (c *scriptedConn) connect(ctx context.Context) (pgbundle.DBConnection, error) {
	return c, nil
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {}
func (l *recordingLogger) Info(format string, args ...interface{}) {}
func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Error(format string, args ...interface{}) {}
