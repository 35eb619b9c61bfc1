package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// RetryPolicy bounds retries of a single destination write.
type RetryPolicy struct {
	MaxAttempts int              // total attempts, including the first
	Delay       time.Duration    // fixed wait between attempts
	Retryable   func(error) bool // nil retries nothing
	Timer       backoff.Timer    // nil uses a real timer
}

// DefaultRetryPolicy makes 3 attempts 5s apart, retrying only transient conflicts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second, Retryable: IsTransientConflict}
}

// IsTransientConflict reports whether err is a destination conflict worth retrying.
func IsTransientConflict(err error) bool {
	return errors.Is(err, shared.ErrTransientConflict)
}

func (p RetryPolicy) retryable(err error) bool {
	return err != nil && p.Retryable != nil && p.Retryable(err)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := max(p.MaxAttempts, 1)
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

// Do calls op until it succeeds, returns a non-retryable error, or MaxAttempts is reached.
//
// notify runs before each wait. Do returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error, notify func(attempt int, err error, next time.Duration)) (int, error) {
	attempt := 0
	err := backoff.RetryNotifyWithTimer(func() error {
		attempt++
		err := op(attempt)
		if err != nil && !p.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx), func(err error, next time.Duration) {
		if notify != nil {
			notify(attempt, err, next)
		}
	}, p.Timer)
	return attempt, err
}
