package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Classifier decides whether an error is worth retrying.
type Classifier interface {
	IsTransient(err error) bool
}

// Executor runs an operation until it succeeds, fails fatally, or the policy
// runs out of attempts.
type Executor struct {
	classifier Classifier
	policy     Policy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates an executor. Panics if classifier is nil.
func NewExecutor(classifier Classifier, policy Policy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	return &Executor{classifier: classifier, policy: policy}
}

// WithOnRetry returns a copy of e that calls callback before every retry.
// The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation with retries and returns the last error.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	b := backoff.WithContext(e.policy.newBackOff(), ctx)

	attempt := 0
	notify := func(err error, delay time.Duration) {
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}
		attempt++
	}

	return backoff.RetryNotify(func() error {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		if !e.classifier.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, notify)
}
