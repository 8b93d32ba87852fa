package utils

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ProbeFunc reports whether the backing store is currently reachable.
type ProbeFunc func(ctx context.Context) error

// NetWatcher polls a connectivity probe and notifies subscribers on
// online/offline transitions. It stands in for the platform-level
// online/offline signal a kiosk browser shell would provide.
type NetWatcher struct {
	probe    ProbeFunc
	interval time.Duration

	mu     sync.RWMutex
	online bool
	subs   []func(online bool)
}

func NewNetWatcher(probe ProbeFunc, interval time.Duration) *NetWatcher {
	return &NetWatcher{
		probe:    probe,
		interval: interval,
		online:   true,
	}
}

// Online reports the last observed connectivity state.
func (w *NetWatcher) Online() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Subscribe registers a callback invoked on every state transition.
// Callbacks run on the watcher goroutine; keep them short.
func (w *NetWatcher) Subscribe(fn func(online bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Run polls until ctx is cancelled.
func (w *NetWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one probe cycle and fires subscribers if the state flipped.
func (w *NetWatcher) Check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := w.probe(probeCtx)
	cancel()

	nowOnline := err == nil

	w.mu.Lock()
	changed := nowOnline != w.online
	w.online = nowOnline
	subs := make([]func(bool), len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	if !changed {
		return
	}

	if nowOnline {
		slog.Info("connectivity restored")
	} else {
		slog.Warn("connectivity lost", "error", err)
	}

	for _, fn := range subs {
		fn(nowOnline)
	}
}

// SetOnline forces the state, firing subscribers on change. Used by the
// manual controls and by tests.
func (w *NetWatcher) SetOnline(online bool) {
	w.mu.Lock()
	changed := online != w.online
	w.online = online
	subs := make([]func(bool), len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(online)
	}
}
