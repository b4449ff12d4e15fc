package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func noSleep(slept *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var slept []time.Duration
	calls := 0

	got, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Backoff:     Exponential(time.Second),
		Sleep:       noSleep(&slept),
	}, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errTemporary
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	var slept []time.Duration
	calls := 0

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Sleep:       noSleep(&slept),
	}, func(context.Context, int) (int, error) {
		calls++
		return 0, errTemporary
	})

	assert.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 3, calls)
	assert.Empty(t, slept, "nil backoff must not sleep")
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0

	_, err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return errors.Is(err, errTemporary) },
	}, func(context.Context, int) (int, error) {
		calls++
		return 0, fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, func(context.Context, int) (int, error) {
		calls++
		return 0, errTemporary
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	_, err := Do(ctx, Policy{
		MaxAttempts: 3,
		Backoff:     Exponential(time.Hour),
	}, func(context.Context, int) (int, error) {
		calls++
		cancel()
		return 0, errTemporary
	})

	assert.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 1, calls)
}

func TestDo_NotifyReportsEachRetry(t *testing.T) {
	var attempts []int
	_, _ = Do(context.Background(), Policy{
		MaxAttempts: 3,
		Backoff:     Linear(time.Millisecond),
		Sleep:       func(context.Context, time.Duration) error { return nil },
		Notify: func(attempt int, _ error, _ time.Duration) {
			attempts = append(attempts, attempt)
		},
	}, func(context.Context, int) (int, error) {
		return 0, errTemporary
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestBackoffs(t *testing.T) {
	exp := Exponential(time.Second)
	assert.Equal(t, time.Second, exp(1, nil))
	assert.Equal(t, 2*time.Second, exp(2, nil))
	assert.Equal(t, 4*time.Second, exp(3, nil))
	assert.Equal(t, time.Second, exp(0, nil))

	lin := Linear(time.Second)
	assert.Equal(t, 3*time.Second, lin(3, nil))
}
