package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how failed fetches are retried. Delays grow as
// min(BaseDelay*2^attempt, MaxDelay).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Retryable decides whether an error is transient. Nil retries everything.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries three times starting at one second, capped at 30s.
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Retryable:  retryable,
	}
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. The last error is returned unwrapped.
func Retry[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, fn func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0
	op := func() error {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			if !p.retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}
	notify := func(err error, wait time.Duration) {
		if logger != nil {
			logger.Warn("fetch failed, retrying",
				"attempt", attempt,
				"backoff", wait,
				"error", err,
			)
		}
	}
	if err := backoff.RetryNotify(op, p.backOff(ctx), notify); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
