package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBreaker_StaysClosedOnSuccess(t *testing.T) {
	breaker := NewStoreBreaker("test")

	for i := 0; i < 10; i++ {
		require.NoError(t, breaker.Execute(func() error { return nil }))
	}
	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestStoreBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewStoreBreaker("test")
	boom := errors.New("store down")

	for i := 0; i < 5; i++ {
		err := breaker.Execute(func() error { return boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, BreakerOpen, breaker.State())

	// Open breaker short-circuits without running the operation.
	ran := false
	err := breaker.Execute(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, ran)
}

func TestStoreBreaker_SuccessResetsFailureStreak(t *testing.T) {
	breaker := NewStoreBreaker("test")
	boom := errors.New("store down")

	for i := 0; i < 4; i++ {
		_ = breaker.Execute(func() error { return boom })
	}
	require.NoError(t, breaker.Execute(func() error { return nil }))

	for i := 0; i < 4; i++ {
		_ = breaker.Execute(func() error { return boom })
	}
	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestStoreBreaker_HalfOpenRecovery(t *testing.T) {
	breaker := NewStoreBreaker("test")
	breaker.openTimeout = 5 * time.Millisecond
	boom := errors.New("store down")

	for i := 0; i < 5; i++ {
		_ = breaker.Execute(func() error { return boom })
	}
	require.Equal(t, BreakerOpen, breaker.State())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, BreakerHalfOpen, breaker.State())

	require.NoError(t, breaker.Execute(func() error { return nil }))
	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestStoreBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker := NewStoreBreaker("test")
	breaker.openTimeout = 5 * time.Millisecond
	boom := errors.New("store down")

	for i := 0; i < 5; i++ {
		_ = breaker.Execute(func() error { return boom })
	}
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, BreakerHalfOpen, breaker.State())

	_ = breaker.Execute(func() error { return boom })
	assert.Equal(t, BreakerOpen, breaker.State())
}
