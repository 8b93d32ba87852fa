package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"checkin-kiosk/internal/status"
	"checkin-kiosk/models"
	"checkin-kiosk/monitoring"
	"checkin-kiosk/utils"
)

// SyncService applies booking patches through the retry policy and falls
// back to an in-memory pending-operation queue when the store is offline
// or keeps failing. From the operator's side a queued write still reads as
// success; the queue is replayed when connectivity returns.
type SyncService struct {
	store   BookingStore
	retry   *utils.RetryPolicy
	breaker *utils.StoreBreaker
	monitor *monitoring.Monitor

	mu        sync.Mutex
	online    bool
	replaying bool
	queue     []models.QueuedOperation
}

func NewSyncService(store BookingStore, retry *utils.RetryPolicy, breaker *utils.StoreBreaker, monitor *monitoring.Monitor) *SyncService {
	return &SyncService{
		store:   store,
		retry:   retry,
		breaker: breaker,
		monitor: monitor,
		online:  true,
	}
}

// Apply writes the patch, queueing it instead of failing. The returned
// bool is true when the operation was queued rather than applied.
func (s *SyncService) Apply(ctx context.Context, bookingID string, patch models.BookingPatch) (bool, error) {
	if !s.Online() {
		s.enqueue(bookingID, patch)
		return true, nil
	}

	attempts := 0
	err := s.breaker.Execute(func() error {
		return s.retry.Do(ctx, func() error {
			attempts++
			return s.store.Update(ctx, bookingID, patch)
		})
	})
	if attempts > 0 {
		s.monitor.TrackWriteAttempts(attempts)
	}

	if err == nil {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, err
	}

	if errors.Is(err, utils.ErrBreakerOpen) {
		slog.Warn("store breaker open, queueing booking write", "booking_id", bookingID)
	} else {
		slog.Warn("store write exhausted retries, queueing", "booking_id", bookingID, "error", err)
	}
	s.enqueue(bookingID, patch)
	return true, nil
}

// HandleConnectivity is wired to the net watcher. Going online drains the
// queue; going offline just flips the gate for subsequent writes.
func (s *SyncService) HandleConnectivity(ctx context.Context, online bool) {
	s.mu.Lock()
	s.online = online
	pending := len(s.queue)
	s.mu.Unlock()

	if online && pending > 0 {
		go s.Replay(ctx)
	}
}

func (s *SyncService) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Pending returns a copy of the queued operations, oldest first.
func (s *SyncService) Pending() []models.QueuedOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QueuedOperation, len(s.queue))
	copy(out, s.queue)
	return out
}

// enqueue coalesces per booking: a later patch merges over the earlier one
// in place, keeping any timestamp the earlier patch already carried. The
// queue never grows past one entry per booking, and an offline check-in
// followed by an offline check-out replays as a single complete write.
func (s *SyncService) enqueue(bookingID string, patch models.BookingPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.queue {
		if s.queue[i].BookingID == bookingID {
			if patch.CheckedInAt == nil {
				patch.CheckedInAt = s.queue[i].Patch.CheckedInAt
			}
			if patch.CheckedOutAt == nil {
				patch.CheckedOutAt = s.queue[i].Patch.CheckedOutAt
			}
			s.queue[i].Patch = patch
			s.queue[i].EnqueuedAt = time.Now()
			s.monitor.SetPendingDepth(len(s.queue))
			return
		}
	}

	s.queue = append(s.queue, models.QueuedOperation{
		BookingID:  bookingID,
		Patch:      patch,
		EnqueuedAt: time.Now(),
	})
	s.monitor.SetPendingDepth(len(s.queue))
}

// Replay drains the queue sequentially in enqueue order. Operations that
// apply cleanly (or turn out stale against fresh store state) are removed;
// failures stay for the next reconnect cycle. Only one replay runs at a
// time.
func (s *SyncService) Replay(ctx context.Context) {
	s.mu.Lock()
	if s.replaying || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.replaying = true
	snapshot := make([]models.QueuedOperation, len(s.queue))
	copy(snapshot, s.queue)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.replaying = false
		s.mu.Unlock()
	}()

	slog.Info("replaying pending operations", "count", len(snapshot))

	for _, op := range snapshot {
		if ctx.Err() != nil {
			return
		}
		if s.replayOne(ctx, op) {
			s.remove(op.BookingID, op.Patch)
		}
	}
}

// replayOne reports whether the operation should leave the queue, either
// because it was applied or because the store already moved past it.
func (s *SyncService) replayOne(ctx context.Context, op models.QueuedOperation) bool {
	current, err := s.store.Get(ctx, op.BookingID)
	if err != nil {
		if errors.Is(err, status.ErrBookingNotFound) {
			slog.Warn("queued booking no longer exists, dropping", "booking_id", op.BookingID)
			return true
		}
		return false
	}

	// Guards were evaluated against the state seen at scan time; re-check
	// against what the store holds now and drop anything stale.
	if statusRank(current.Status) >= statusRank(op.Patch.Status) {
		slog.Info("queued operation superseded, dropping",
			"booking_id", op.BookingID, "current", current.Status, "patch", op.Patch.Status)
		return true
	}

	// A check-out patch without its own check-in data must not jump a
	// booking straight past the checked-in state; hold it until the
	// check-in lands (possibly from the admin side).
	if op.Patch.Status == models.StatusCheckedOut && op.Patch.CheckedInAt == nil {
		if guardErr := CheckOutGuard(current.Status); guardErr != nil {
			slog.Warn("queued check-out not applicable yet, keeping",
				"booking_id", op.BookingID, "error", guardErr)
			return false
		}
	}

	if err := s.store.Update(ctx, op.BookingID, op.Patch); err != nil {
		slog.Warn("replay failed, keeping for next cycle", "booking_id", op.BookingID, "error", err)
		return false
	}
	return true
}

func (s *SyncService) remove(bookingID string, patch models.BookingPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.queue {
		// Match on patch as well: a scan during replay may have coalesced
		// a newer patch under the same booking id.
		if s.queue[i].BookingID == bookingID && s.queue[i].Patch.Status == patch.Status {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.monitor.SetPendingDepth(len(s.queue))
}

func statusRank(st string) int {
	switch st {
	case models.StatusBooked:
		return 0
	case models.StatusCheckedIn:
		return 1
	case models.StatusCheckedOut:
		return 2
	}
	return -1
}
