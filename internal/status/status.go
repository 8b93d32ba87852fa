package status

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Scan ingest
	ErrInvalidScan    = errors.New("scan: payload is not a booking id")
	ErrScanInFlight   = errors.New("scan: another scan is being processed")
	ErrSessionStopped = errors.New("scan: session is not accepting scans")

	// Booking lookup
	ErrBookingNotFound = errors.New("booking: booking not found")

	// Transition guards
	ErrAlreadyCheckedIn  = errors.New("transition: already here, booking is checked in")
	ErrAlreadyCheckedOut = errors.New("transition: already checked out, contact an administrator to override")
	ErrNeedsCheckInFirst = errors.New("transition: needs to check in first")
	ErrUnsupportedStatus = errors.New("transition: booking status not recognized")

	// Capture device
	ErrPermissionDenied = errors.New("capture: device permission denied")
	ErrDeviceBusy       = errors.New("capture: device is busy")
	ErrNoDevice         = errors.New("capture: no capture device found")
)

// TooEarlyError reports a check-in attempt before the slot window opens.
// AvailableAt is the earliest wall-clock time the check-in becomes valid.
type TooEarlyError struct {
	AvailableAt time.Time
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("transition: too early, check-in opens at %s", e.AvailableAt.Format("3:04 PM"))
}

// TooLateError reports a check-in attempt after the slot window has closed.
type TooLateError struct {
	ClosedAt time.Time
}

func (e *TooLateError) Error() string {
	return fmt.Sprintf("transition: too late, check-in closed at %s", e.ClosedAt.Format("3:04 PM"))
}

// IsUserFacing reports whether err is a terminal, operator-visible rejection
// that must not be retried. Transient store errors are excluded on purpose.
func IsUserFacing(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidScan),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrAlreadyCheckedIn),
		errors.Is(err, ErrAlreadyCheckedOut),
		errors.Is(err, ErrNeedsCheckInFirst),
		errors.Is(err, ErrUnsupportedStatus):
		return true
	}
	var tooEarly *TooEarlyError
	var tooLate *TooLateError
	return errors.As(err, &tooEarly) || errors.As(err, &tooLate)
}
