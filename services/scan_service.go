package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"checkin-kiosk/capture"
	"checkin-kiosk/internal/status"
	"checkin-kiosk/models"
	"checkin-kiosk/monitoring"
	"checkin-kiosk/security"
	"checkin-kiosk/utils"

	"github.com/google/uuid"
)

type SessionState int32

const (
	StateStopped SessionState = iota
	StateInitializing
	StateScanning
	StateProcessing
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateInitializing:
		return "initializing"
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Scan outcomes recorded per attempt.
const (
	OutcomeApplied  = "applied"
	OutcomeQueued   = "queued"
	OutcomeRejected = "rejected"
)

// ScanSession owns one terminal's scanning lifecycle end to end: the
// capture adapter, the in-flight guard, the scan history and the timers.
// All mutable session state lives here behind Start/Stop, never in
// free-floating references a half-torn-down callback could still reach.
type ScanSession struct {
	terminalID       string
	dataErrorDelay   time.Duration
	deviceRetryDelay time.Duration

	adapter  capture.Adapter
	store    BookingStore
	engine   *TransitionEngine
	sync     *SyncService
	feedback *FeedbackService
	noise    *security.NoiseLimiter
	monitor  *monitoring.Monitor

	processing atomic.Bool
	totalScans atomic.Int64

	mu         sync.Mutex
	state      SessionState
	sessionID  string
	startedAt  time.Time
	history    []models.ScanAttempt
	runCtx     context.Context
	runCancel  context.CancelFunc
	retryTimer *time.Timer
}

type ScanSessionConfig struct {
	TerminalID       string
	DataErrorDelay   time.Duration
	DeviceRetryDelay time.Duration
}

func NewScanSession(cfg ScanSessionConfig, adapter capture.Adapter, store BookingStore,
	engine *TransitionEngine, syncSvc *SyncService, feedback *FeedbackService,
	noise *security.NoiseLimiter, monitor *monitoring.Monitor) *ScanSession {

	s := &ScanSession{
		terminalID:       cfg.TerminalID,
		dataErrorDelay:   cfg.DataErrorDelay,
		deviceRetryDelay: cfg.DeviceRetryDelay,
		adapter:          adapter,
		store:            store,
		engine:           engine,
		sync:             syncSvc,
		feedback:         feedback,
		noise:            noise,
		monitor:          monitor,
		state:            StateStopped,
	}
	feedback.OnResume(s.resumeScanning)
	return s
}

// Start acquires the capture device and enters the scanning state. A busy
// device gets one automatic retry after the configured delay; any other
// capture failure parks the session in the error state for a manual
// retry.
func (s *ScanSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateScanning || s.state == StateProcessing || s.state == StateInitializing {
		return nil
	}

	s.state = StateInitializing
	s.sessionID, _ = utils.GenerateCode(4)
	// The capture loop must outlive whatever request-scoped context the
	// caller holds (the manual start control hands over one that dies
	// with the HTTP exchange); its lifetime is owned by Stop alone.
	s.runCtx, s.runCancel = context.WithCancel(context.WithoutCancel(ctx))

	if err := s.adapter.Start(s.runCtx, s.onDecoded); err != nil {
		s.runCancel()
		s.state = StateError

		if errors.Is(err, status.ErrDeviceBusy) {
			slog.Warn("capture device busy, scheduling one automatic retry",
				"terminal_id", s.terminalID, "delay", s.deviceRetryDelay)
			s.retryTimer = time.AfterFunc(s.deviceRetryDelay, func() {
				if startErr := s.Start(ctx); startErr != nil {
					slog.Error("automatic capture retry failed", "error", startErr)
				}
			})
		}
		return fmt.Errorf("start capture: %w", err)
	}

	s.startedAt = time.Now()
	s.state = StateScanning
	slog.Info("scan session started", "terminal_id", s.terminalID, "session_id", s.sessionID)
	return nil
}

// Stop releases the capture device and every pending timer. This is the
// unconditional teardown used by shutdown, scheduled restarts and the
// manual control; it must leave no orphaned device lock behind.
func (s *ScanSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	if s.runCancel != nil {
		s.runCancel()
	}
	s.feedback.Stop()

	err := s.adapter.Stop()
	s.state = StateStopped
	s.processing.Store(false)
	slog.Info("scan session stopped", "terminal_id", s.terminalID, "session_id", s.sessionID)
	return err
}

func (s *ScanSession) onDecoded(text string) {
	if _, err := s.Submit(text); err != nil &&
		!errors.Is(err, status.ErrScanInFlight) && !status.IsUserFacing(err) {
		slog.Error("scan failed", "error", err)
	}
}

// Submit runs one decoded payload through the full scan-to-feedback
// cycle. At most one scan is in flight per terminal: anything arriving
// while a prior scan is processing is dropped with ErrScanInFlight.
func (s *ScanSession) Submit(raw string) (*models.ScanAttempt, error) {
	s.mu.Lock()
	if s.state != StateScanning {
		inProcessing := s.state == StateProcessing
		s.mu.Unlock()
		if inProcessing {
			return nil, status.ErrScanInFlight
		}
		return nil, status.ErrSessionStopped
	}
	if !s.processing.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return nil, status.ErrScanInFlight
	}
	s.state = StateProcessing
	ctx := s.runCtx
	s.mu.Unlock()

	attempt, err := s.process(ctx, raw)

	s.totalScans.Add(1)
	s.monitor.TrackScan(attempt.Outcome)
	s.recordAttempt(attempt)

	return attempt, err
}

func (s *ScanSession) process(ctx context.Context, raw string) (*models.ScanAttempt, error) {
	attempt := &models.ScanAttempt{
		RawText:   raw,
		Outcome:   OutcomeRejected,
		ScannedAt: time.Now(),
	}

	id, err := ExtractBookingID(raw)
	if err != nil {
		delay := s.dataErrorDelay
		if s.noise.RecordInvalid(ctx, s.terminalID) {
			delay *= 2
		}
		attempt.Message = "Scan not recognized"
		s.feedback.NotifyAfter(attempt.Message, models.FeedbackError, delay)
		return attempt, err
	}
	attempt.BookingID = id

	booking, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, status.ErrBookingNotFound) {
			attempt.Message = "Booking not found"
		} else {
			attempt.Message = "Could not load booking"
		}
		s.feedback.Notify(attempt.Message, models.FeedbackError)
		return attempt, err
	}

	action, patch, err := s.engine.Resolve(booking)
	attempt.Action = action
	if err != nil {
		attempt.Message = RejectionMessage(err)
		s.monitor.TrackTransition(action, "rejected")
		s.feedback.Notify(attempt.Message, models.FeedbackError)
		return attempt, err
	}

	queued, err := s.sync.Apply(ctx, booking.ID, patch)
	if err != nil {
		attempt.Message = "Could not save, try again"
		s.monitor.TrackTransition(action, "failed")
		s.feedback.Notify(attempt.Message, models.FeedbackError)
		return attempt, err
	}

	if queued {
		attempt.Outcome = OutcomeQueued
	} else {
		attempt.Outcome = OutcomeApplied
	}
	s.monitor.TrackTransition(action, attempt.Outcome)

	attempt.Message = successMessage(action, booking)
	s.feedback.Notify(attempt.Message, models.FeedbackSuccess)
	return attempt, nil
}

// resumeScanning is the single re-entry point back into the scanning
// state, driven by the feedback display timer.
func (s *ScanSession) resumeScanning() {
	s.processing.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateProcessing {
		s.state = StateScanning
	}
}

func (s *ScanSession) recordAttempt(attempt *models.ScanAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *attempt)
}

func (s *ScanSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ScanSession) TotalScans() int64 {
	return s.totalScans.Load()
}

func (s *ScanSession) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *ScanSession) History() []models.ScanAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScanAttempt, len(s.history))
	copy(out, s.history)
	return out
}

// TrimHistory drops everything but the most recent keep attempts. Used by
// the health monitor's memory cleanup.
func (s *ScanSession) TrimHistory(keep int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) > keep {
		s.history = append([]models.ScanAttempt(nil), s.history[len(s.history)-keep:]...)
	}
}

// ResetCounters zeroes the throughput counters and restarts the uptime
// baseline. The pending-operation queue is not touched.
func (s *ScanSession) ResetCounters() {
	s.totalScans.Store(0)
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()
}

// ExtractBookingID pulls a canonical booking id out of a decoded payload.
// The payload is either the id itself or a booking URL carrying it as the
// booking_id query parameter.
func ExtractBookingID(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)

	if strings.Contains(candidate, "://") {
		u, err := url.Parse(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %q", status.ErrInvalidScan, raw)
		}
		candidate = u.Query().Get("booking_id")
	}

	id, err := uuid.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", status.ErrInvalidScan, raw)
	}
	return id.String(), nil
}

// RejectionMessage maps a guard error to the operator-facing text.
func RejectionMessage(err error) string {
	switch {
	case errors.Is(err, status.ErrAlreadyCheckedIn):
		return "Already here - booking is checked in"
	case errors.Is(err, status.ErrAlreadyCheckedOut):
		return "Already checked out - contact an administrator to override"
	case errors.Is(err, status.ErrNeedsCheckInFirst):
		return "Needs to check in first"
	case errors.Is(err, status.ErrUnsupportedStatus):
		return "Booking is in an unexpected state"
	}

	var tooEarly *status.TooEarlyError
	if errors.As(err, &tooEarly) {
		return fmt.Sprintf("Too early - check-in opens at %s", tooEarly.AvailableAt.Format("3:04 PM"))
	}
	var tooLate *status.TooLateError
	if errors.As(err, &tooLate) {
		return "Too late - the check-in window has closed"
	}
	return err.Error()
}

func successMessage(action string, booking *models.Booking) string {
	verb := "Checked in"
	if action == models.ActionCheckOut {
		verb = "Checked out"
	}

	name := booking.Profile.FullName
	if name == "" {
		name = "guest"
	}

	return fmt.Sprintf("%s: %s (%s %s-%s, seat %d)",
		verb, name, booking.Sport.Name,
		booking.Slot.StartTime, booking.Slot.EndTime, booking.SeatNumber)
}
