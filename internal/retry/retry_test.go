package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("throttled")

func TestDo(t *testing.T) {
	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		var waits []int
		err := Do(context.Background(), Policy{
			Backoff: Fixed(0),
			OnRetry: func(attempt int, err error, _ time.Duration) { waits = append(waits, attempt) },
		}, func(context.Context) error {
			calls++
			if calls < 4 {
				return errTransient
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 4, calls)
		assert.Equal(t, []int{1, 2, 3}, waits)
	})

	t.Run("stops on non retryable error", func(t *testing.T) {
		fatal := errors.New("access denied")
		calls := 0
		err := Do(context.Background(), Policy{
			Retryable: func(err error) bool { return errors.Is(err, errTransient) },
		}, func(context.Context) error {
			calls++
			return fatal
		})

		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("non retryable error does not notify", func(t *testing.T) {
		retried := false
		err := Do(context.Background(), Policy{
			Backoff:   Fixed(time.Hour),
			Retryable: func(error) bool { return false },
			OnRetry:   func(int, error, time.Duration) { retried = true },
		}, func(context.Context) error {
			return errTransient
		})

		assert.ErrorIs(t, err, errTransient)
		assert.False(t, retried)
	})

	t.Run("honours max attempts", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), Policy{MaxAttempts: 3}, func(context.Context) error {
			calls++
			return errTransient
		})

		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Do(ctx, Policy{Backoff: Fixed(time.Hour)}, func(context.Context) error {
			calls++
			cancel()
			return errTransient
		})

		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 1, calls)
	})
}

func TestPoll(t *testing.T) {
	t.Run("polls until condition holds", func(t *testing.T) {
		calls := 0
		err := Poll(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("propagates condition errors", func(t *testing.T) {
		boom := errors.New("boom")
		err := Poll(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
			return false, boom
		})

		assert.ErrorIs(t, err, boom)
	})

	t.Run("stops at deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := Poll(ctx, 5*time.Millisecond, func(context.Context) (bool, error) {
			return false, nil
		})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Wait(context.Background(), 0))
}

func TestBackoffs(t *testing.T) {
	assert.Equal(t, 3*time.Second, Fixed(3*time.Second).NextBackOff())

	b := Jittered(5 * time.Second)
	for i := 0; i < 50; i++ {
		d := b.NextBackOff()
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 5*time.Second)
	}
}

func TestJitterSeconds(t *testing.T) {
	assert.Equal(t, time.Duration(0), JitterSeconds(0))
	assert.Equal(t, time.Duration(0), JitterSeconds(500*time.Millisecond))

	for i := 0; i < 200; i++ {
		d := JitterSeconds(10 * time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 10*time.Second)
		assert.Zero(t, d%time.Second, "jitter must be whole seconds")
	}
}
