// Package retry holds the waiting primitives shared by the pipeline stages:
// condition polling and retry loops over cenkalti/backoff policies, plus a
// context-aware sleep. All of them stop when the context is done.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Fixed waits the same delay before every retry.
func Fixed(d time.Duration) backoff.BackOff {
	return backoff.NewConstantBackOff(d)
}

// Jittered waits a uniformly random whole number of seconds in [0, max)
// before every retry.
func Jittered(max time.Duration) backoff.BackOff {
	return jitter{max: max}
}

type jitter struct {
	max time.Duration
}

func (j jitter) NextBackOff() time.Duration { return JitterSeconds(j.max) }
func (j jitter) Reset()                     {}

// JitterSeconds returns a random whole-second duration in [0, max).
func JitterSeconds(max time.Duration) time.Duration {
	secs := int64(max / time.Second)
	if secs <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(secs)) * time.Second
}

// Policy describes when and how often a failing call is re-issued.
type Policy struct {
	// MaxAttempts caps the number of calls; 0 retries until the context ends.
	MaxAttempts int
	// Backoff paces the retries. Nil retries immediately.
	Backoff backoff.BackOff
	// Retryable decides whether an error is transient. Nil retries everything.
	Retryable func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Do calls fn until it succeeds, returns a non-retryable error, exhausts
// MaxAttempts, or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	b := p.Backoff
	if b == nil {
		b = &backoff.ZeroBackOff{}
	}
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}

	var (
		attempt int
		last    error
	)
	err := backoff.RetryNotify(func() error {
		attempt++
		last = fn(ctx)
		if last != nil && p.Retryable != nil && !p.Retryable(last) {
			return backoff.Permanent(last)
		}
		return last
	}, backoff.WithContext(b, ctx), func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
	})
	if err != nil {
		return last
	}
	return nil
}

var errPending = errors.New("condition not met")

// Poll evaluates cond immediately and then every interval until it reports
// true, returns an error, or ctx is done.
func Poll(ctx context.Context, interval time.Duration, cond func(ctx context.Context) (bool, error)) error {
	return backoff.Retry(func() error {
		done, err := cond(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errPending
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(interval), ctx))
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
