// Package retry runs an operation under a bounded, fixed-delay attempt policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shillcollin/reportgate/core"
)

// Policy bounds how many times an operation is attempted and how long to wait
// between attempts. There is no wait before the first attempt or after the last.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// OnRetry, when set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Once is a policy with a single attempt.
var Once = Policy{MaxAttempts: 1}

// Constant returns a policy of n attempts separated by delay.
func Constant(n int, delay time.Duration) Policy {
	return Policy{MaxAttempts: n, Delay: delay}
}

// Attempts returns the normalized attempt bound (at least one).
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Do invokes op until it succeeds, returns a non-retryable error, the attempt
// bound is reached, or ctx is done. It returns the number of attempts made and
// the last error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	delay := p.Delay
	if delay < 0 {
		delay = 0
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(p.Attempts()-1)),
		ctx,
	)

	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx, attempts)
		if err != nil && !core.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = func(err error, wait time.Duration) { p.OnRetry(attempts, err, wait) }
	}
	err := backoff.RetryNotify(operation, b, notify)
	return attempts, err
}
