// Package retry retries operations that fail with transient PostgreSQL or
// network errors, using exponential backoff from cenkalti/backoff.
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.DefaultPolicy())
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
//
// Errors the classifier reports as fatal stop the loop immediately and are
// returned unchanged. Executor is safe for concurrent use.
package retry
