package services

import (
	"time"

	"checkin-kiosk/internal/status"
	"checkin-kiosk/models"
)

// TransitionEngine decides the single legal action for a booking and
// applies the slot time-window guards. It is a pure function of the
// booking and the clock; it never touches the store.
type TransitionEngine struct {
	earlyWindow time.Duration
	now         func() time.Time
}

func NewTransitionEngine(earlyWindow time.Duration) *TransitionEngine {
	return &TransitionEngine{
		earlyWindow: earlyWindow,
		now:         time.Now,
	}
}

// Resolve infers the action from the booking status and, if the guards
// pass, returns the patch that advances the booking. Rejections come back
// as the typed errors in internal/status and leave the booking untouched.
func (e *TransitionEngine) Resolve(booking *models.Booking) (string, models.BookingPatch, error) {
	switch booking.Status {
	case models.StatusBooked:
		patch, err := e.checkIn(booking)
		return models.ActionCheckIn, patch, err
	case models.StatusCheckedIn:
		patch, err := e.checkOut(booking)
		return models.ActionCheckOut, patch, err
	case models.StatusCheckedOut:
		return "", models.BookingPatch{}, status.ErrAlreadyCheckedOut
	default:
		return "", models.BookingPatch{}, status.ErrUnsupportedStatus
	}
}

func (e *TransitionEngine) checkIn(booking *models.Booking) (models.BookingPatch, error) {
	now := e.now()

	end, err := booking.Slot.EndOn(now)
	if err != nil {
		return models.BookingPatch{}, err
	}
	if now.After(end) {
		return models.BookingPatch{}, &status.TooLateError{ClosedAt: end}
	}

	start, err := booking.Slot.StartOn(now)
	if err != nil {
		return models.BookingPatch{}, err
	}
	opensAt := start.Add(-e.earlyWindow)
	if now.Before(opensAt) {
		return models.BookingPatch{}, &status.TooEarlyError{AvailableAt: opensAt}
	}

	at := now
	return models.BookingPatch{
		Status:      models.StatusCheckedIn,
		CheckedInAt: &at,
	}, nil
}

func (e *TransitionEngine) checkOut(booking *models.Booking) (models.BookingPatch, error) {
	now := e.now()

	// A rescan before the slot has begun is a duplicate arrival, not a
	// departure; check-out only becomes the inferred action once the
	// session is underway.
	start, err := booking.Slot.StartOn(now)
	if err != nil {
		return models.BookingPatch{}, err
	}
	if now.Before(start) {
		return models.BookingPatch{}, status.ErrAlreadyCheckedIn
	}

	at := now
	return models.BookingPatch{
		Status:       models.StatusCheckedOut,
		CheckedOutAt: &at,
	}, nil
}

// CheckOutGuard re-validates a check-out attempt against a status that may
// have changed since the action was inferred, used on queue replay.
func CheckOutGuard(currentStatus string) error {
	switch currentStatus {
	case models.StatusBooked:
		return status.ErrNeedsCheckInFirst
	case models.StatusCheckedOut:
		return status.ErrAlreadyCheckedOut
	}
	return nil
}
