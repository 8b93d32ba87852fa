package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned without invoking the operation while the
// breaker is open. The sync coordinator treats it like being offline.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// StoreBreaker fast-fails booking-store writes when the store has been
// failing consistently, so a dead backend does not cost a full retry cycle
// per scan. Kiosk traffic is low, so the thresholds are small.
type StoreBreaker struct {
	name             string
	failureThreshold uint32
	openTimeout      time.Duration

	mu       sync.Mutex
	state    BreakerState
	failures uint32
	openedAt time.Time
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

func NewStoreBreaker(name string) *StoreBreaker {
	return &StoreBreaker{
		name:             name,
		failureThreshold: 5,
		openTimeout:      30 * time.Second,
		state:            BreakerClosed,
	}
}

// Execute runs op unless the breaker is open. A success in half-open state
// closes the breaker; a failure re-opens it.
func (b *StoreBreaker) Execute(op func() error) error {
	if !b.allow() {
		return ErrBreakerOpen
	}

	err := op()
	b.record(err == nil)
	return err
}

// State returns the current breaker state, resolving open->half-open expiry.
func (b *StoreBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

func (b *StoreBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now()) != BreakerOpen
}

func (b *StoreBreaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.currentState(time.Now())

	if success {
		b.failures = 0
		if state == BreakerHalfOpen {
			b.state = BreakerClosed
		}
		return
	}

	b.failures++
	if state == BreakerHalfOpen || b.failures >= b.failureThreshold {
		b.state = BreakerOpen
		b.openedAt = time.Now()
		b.failures = 0
	}
}

func (b *StoreBreaker) currentState(now time.Time) BreakerState {
	if b.state == BreakerOpen && now.Sub(b.openedAt) >= b.openTimeout {
		b.state = BreakerHalfOpen
	}
	return b.state
}
