package committer

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy decides whether and when a failed settlement call is resubmitted. A retry
// reuses the submission's nonce and happens before the sender takes the next item, so
// ordering is unaffected.
type RetryPolicy interface {
	// Schedule returns a fresh schedule for one submission.
	Schedule() backoff.BackOff
}

// NoRetry gives up after the first failure and leaves the operation to recovery.
type NoRetry struct{}

func (NoRetry) Schedule() backoff.BackOff {
	return &backoff.StopBackOff{}
}

// BackoffRetry resubmits up to MaxAttempts times with exponential backoff.
type BackoffRetry struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (r BackoffRetry) Schedule() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.MaxInterval = r.MaxInterval
	// the attempt budget bounds retries, not wall time
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(r.MaxAttempts))
}

// NewRetryPolicy returns NoRetry for maxAttempts <= 0.
func NewRetryPolicy(maxAttempts int, initial, max time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		return NoRetry{}
	}
	return BackoffRetry{MaxAttempts: maxAttempts, InitialInterval: initial, MaxInterval: max}
}
