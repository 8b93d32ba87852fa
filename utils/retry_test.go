package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingPolicy(maxAttempts int, base time.Duration) (*RetryPolicy, *[]time.Duration) {
	policy := NewRetryPolicy(maxAttempts, base)
	policy.MaxJitter = 0

	var delays []time.Duration
	policy.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return policy, &delays
}

func TestRetryPolicy_FirstAttemptSucceedsWithoutDelay(t *testing.T) {
	policy, delays := recordingPolicy(3, time.Second)

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestRetryPolicy_BackoffShape(t *testing.T) {
	policy, delays := recordingPolicy(3, time.Second)

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, *delays, 2)
	assert.Equal(t, 2*time.Second, (*delays)[0])
	assert.Equal(t, 4*time.Second, (*delays)[1])
	assert.Less(t, (*delays)[0], (*delays)[1])
}

func TestRetryPolicy_JitterStaysInBounds(t *testing.T) {
	policy := NewRetryPolicy(3, time.Second)

	for attempt := 2; attempt <= 3; attempt++ {
		base := time.Second * time.Duration(1<<(attempt-1))
		for i := 0; i < 50; i++ {
			d := policy.delayFor(attempt)
			assert.GreaterOrEqual(t, d, base)
			assert.Less(t, d, base+time.Second)
		}
	}
}

func TestRetryPolicy_ExhaustionReturnsFinalError(t *testing.T) {
	policy, _ := recordingPolicy(3, time.Millisecond)

	final := errors.New("still down")
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return final
	})

	assert.Equal(t, 3, calls)
	require.Error(t, err)
	assert.ErrorIs(t, err, final)
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestRetryPolicy_ContextCancelAbortsBetweenAttempts(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond)
	policy.MaxJitter = 0

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := policy.Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
