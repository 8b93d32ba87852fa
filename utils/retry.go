package utils

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy retries a fallible operation with exponential backoff and
// random jitter. The delay before attempt n (n >= 2) is
// baseDelay * 2^(n-1) + jitter(0..maxJitter).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	sleep func(context.Context, time.Duration) error
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxJitter:   time.Second,
		sleep:       sleepCtx,
	}
}

// Do runs op up to MaxAttempts times. The final error is returned once
// attempts are exhausted; the caller decides whether to queue or surface it.
func (p *RetryPolicy) Do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.delayFor(attempt)); err != nil {
				return err
			}
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("retry: %d attempts exhausted: %w", p.MaxAttempts, lastErr)
}

func (p *RetryPolicy) delayFor(attempt int) time.Duration {
	backoff := p.BaseDelay * time.Duration(1<<(attempt-1))
	if p.MaxJitter <= 0 {
		return backoff
	}
	return backoff + time.Duration(rand.Int63n(int64(p.MaxJitter)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
