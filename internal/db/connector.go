package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgbundle/internal/retry"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns is enough for the sequential verifier and applier.
	DefaultMaxConns = 2

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	DefaultMaxConnIdleTime = 5 * time.Minute
)

// Connector opens a pgx pool with automatic retry on transient failures.
// The connection string may be a URI or a keyword/value DSN; anything it
// leaves out falls back to the standard PG* environment variables and
// ~/.pgpass, as libpq does.
type Connector struct {
	connString string
	executor   *retry.Executor
	logger     pgbundle.Logger
}

// NewConnector creates a connector with the default retry policy.
func NewConnector(connString string, logger pgbundle.Logger) *Connector {
	return &Connector{
		connString: connString,
		executor:   retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.DefaultPolicy()),
		logger:     logger,
	}
}

// WithPolicy returns a copy of c using the given retry policy.
func (c *Connector) WithPolicy(policy retry.Policy) *Connector {
	clone := *c
	clone.executor = retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), policy)
	return &clone
}

func (c *Connector) configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		if notice.Severity == "WARNING" {
			c.logger.Warn("%s", notice.Message)
			return
		}
		c.logger.Verbose("%s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// Connect establishes a pool and pings it.
func (c *Connector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.connString)
	if err != nil {
		return nil, fmt.Errorf("%w: connection string: %v", pgbundle.ErrInvalidConfig, err)
	}
	c.configurePool(poolConfig)

	cc := poolConfig.ConnConfig
	target := fmt.Sprintf("%s:%d/%s", cc.Host, cc.Port, cc.Database)

	var pool *pgxpool.Pool
	err = c.executor.
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Verbose("connect to %s failed (attempt %d), retrying in %s: %v", target, attempt+1, delay, err)
		}).
		Execute(ctx, func(ctx context.Context) error {
			var err error
			pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
			if err != nil {
				return err
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				return err
			}
			return nil
		})
	if err != nil {
		return nil, wrapConnectionError(err, target, cc.Database)
	}

	c.logger.Verbose("connected to %s", target)
	return pool, nil
}

// wrapConnectionError classifies err as a connection failure and adds a hint
// for the common causes.
func wrapConnectionError(err error, target, database string) error {
	msg := strings.ToLower(err.Error())

	var hint string
	switch {
	case strings.Contains(msg, "connection refused"):
		hint = "is PostgreSQL running? check pg_isready and the host and port"
	case strings.Contains(msg, "no such host"):
		hint = "the host name does not resolve"
	case strings.Contains(msg, "password authentication failed"):
		hint = "check the password in the connection string, PGPASSWORD, or ~/.pgpass"
	case strings.Contains(msg, "does not exist"):
		hint = fmt.Sprintf("database %q or the role does not exist", database)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		hint = "the server did not answer in time"
	case strings.Contains(msg, "the database system is starting up"):
		hint = "the server is still starting; retry once recovery finishes"
	}

	if hint == "" {
		return fmt.Errorf("%w: %s: %w", pgbundle.ErrConnectionFailed, target, err)
	}
	return fmt.Errorf("%w: %s (%s): %w", pgbundle.ErrConnectionFailed, target, hint, err)
}
