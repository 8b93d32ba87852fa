package models

import (
	"fmt"
	"time"
)

// Booking statuses. The engine only ever moves a booking forward:
// booked -> checked-in -> checked-out.
const (
	StatusBooked     = "booked"
	StatusCheckedIn  = "checked-in"
	StatusCheckedOut = "checked-out"
)

// Check-in / check-out actions inferred from the current status.
const (
	ActionCheckIn  = "check-in"
	ActionCheckOut = "check-out"
)

type Booking struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	BookingDate string     `json:"booking_date"`
	SeatNumber  int        `json:"seat_number"`
	Slot        Slot       `json:"slot"`
	CheckedInAt *time.Time `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at"`

	// Joined display data, read-only from the engine's perspective.
	Profile Profile `json:"profile"`
	Sport   Sport   `json:"sport"`
}

// Slot is a daily facility window with HH:MM local boundaries.
type Slot struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type Sport struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StartOn resolves the slot's start boundary on the given day, in that
// day's location.
func (s Slot) StartOn(day time.Time) (time.Time, error) {
	return clockOn(s.StartTime, day)
}

// EndOn resolves the slot's end boundary on the given day.
func (s Slot) EndOn(day time.Time) (time.Time, error) {
	return clockOn(s.EndTime, day)
}

func clockOn(hhmm string, day time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("slot time %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// BookingPatch is the partial update a transition produces. Exactly one of
// the timestamp fields is set per transition.
type BookingPatch struct {
	Status       string     `json:"status"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}
