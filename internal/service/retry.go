package service

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy re-invokes a unit of work when it fails with an error the
// classifier marks as transient. It knows nothing about rate limiting or
// storage; callers decide what counts as retryable.
type RetryPolicy struct {
	maxAttempts int
	backoff     time.Duration
	transient   func(error) bool
}

// NewRetryPolicy builds a policy that invokes the unit of work at most
// maxAttempts times (the first call included), sleeping backoff between
// attempts. transient classifies which errors are worth retrying; every
// other error propagates unchanged on the first occurrence.
func NewRetryPolicy(maxAttempts int, backoff time.Duration, transient func(error) bool) (*RetryPolicy, error) {
	if maxAttempts < 1 {
		return nil, fmt.Errorf("retry max attempts must be at least 1, got %d", maxAttempts)
	}
	if backoff < 0 {
		return nil, fmt.Errorf("retry backoff must not be negative, got %s", backoff)
	}
	if transient == nil {
		return nil, fmt.Errorf("retry transient classifier must not be nil")
	}
	return &RetryPolicy{maxAttempts: maxAttempts, backoff: backoff, transient: transient}, nil
}

// Execute runs fn until it succeeds, fails non-transiently, or the attempt
// budget is spent. The backoff wait races against ctx, so a cancelled caller
// stops retrying immediately. No lock is held while waiting.
func (p *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !p.transient(err) {
			return err
		}
		if attempt >= p.maxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		timer := time.NewTimer(p.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
