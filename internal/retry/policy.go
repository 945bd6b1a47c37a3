package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Policy controls retry timing.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// MaxAttempts is the number of retries after the first attempt. Zero disables retries.
	MaxAttempts int
	// Jitter is the randomization factor applied to each delay (0 to 1).
	Jitter float64
}

// DefaultPolicy returns the policy used for database connections.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: pgbundle.DefaultRetryInitialDelay,
		MaxDelay:     pgbundle.DefaultRetryMaxDelay,
		MaxAttempts:  pgbundle.DefaultRetryMaxAttempts,
		Jitter:       0.1,
	}
}

func (p Policy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2.0
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := p.MaxAttempts
	if attempts < 0 {
		attempts = 0
	}
	return backoff.WithMaxRetries(b, uint64(attempts))
}
