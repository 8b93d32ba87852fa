package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"checkin-kiosk/internal/status"
	"checkin-kiosk/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// BookingStore is the only surface of the booking platform this engine
// touches: read one booking, write one status patch.
type BookingStore interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	Update(ctx context.Context, id string, patch models.BookingPatch) error
}

// PBBookingStore reads and writes bookings through the embedded PocketBase
// app, expanding the slot/sport/profile relations needed for feedback
// messages and window checks.
type PBBookingStore struct {
	app core.App
}

func NewPBBookingStore(app core.App) *PBBookingStore {
	return &PBBookingStore{app: app}
}

func (s *PBBookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	record, err := s.app.FindRecordById("bookings", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", status.ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("booking lookup %s: %w", id, err)
	}

	if errs := s.app.ExpandRecord(record, []string{"slot", "sport", "profile"}, nil); len(errs) > 0 {
		for field, expandErr := range errs {
			return nil, fmt.Errorf("booking expand %s.%s: %w", id, field, expandErr)
		}
	}

	booking := &models.Booking{
		ID:          record.Id,
		Status:      record.GetString("status"),
		BookingDate: record.GetString("booking_date"),
		SeatNumber:  record.GetInt("seat_number"),
	}

	if in := record.GetDateTime("checked_in_at"); !in.IsZero() {
		t := in.Time()
		booking.CheckedInAt = &t
	}
	if out := record.GetDateTime("checked_out_at"); !out.IsZero() {
		t := out.Time()
		booking.CheckedOutAt = &t
	}

	if slot := record.ExpandedOne("slot"); slot != nil {
		booking.Slot = models.Slot{
			ID:        slot.Id,
			StartTime: slot.GetString("start_time"),
			EndTime:   slot.GetString("end_time"),
		}
	}
	if sport := record.ExpandedOne("sport"); sport != nil {
		booking.Sport = models.Sport{
			ID:   sport.Id,
			Name: sport.GetString("name"),
		}
	}
	if profile := record.ExpandedOne("profile"); profile != nil {
		booking.Profile = models.Profile{
			ID:       profile.Id,
			FullName: profile.GetString("full_name"),
			Email:    profile.GetString("email"),
		}
	}

	return booking, nil
}

func (s *PBBookingStore) Update(ctx context.Context, id string, patch models.BookingPatch) error {
	record, err := s.app.FindRecordById("bookings", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", status.ErrBookingNotFound, id)
		}
		return fmt.Errorf("booking update %s: %w", id, err)
	}

	record.Set("status", patch.Status)
	if patch.CheckedInAt != nil {
		record.Set("checked_in_at", patch.CheckedInAt.UTC().Format(time.RFC3339))
	}
	if patch.CheckedOutAt != nil {
		record.Set("checked_out_at", patch.CheckedOutAt.UTC().Format(time.RFC3339))
	}

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("booking save %s: %w", id, err)
	}
	return nil
}

// Ping is the connectivity probe target used by the net watcher.
func (s *PBBookingStore) Ping(ctx context.Context) error {
	var records []dbx.NullStringMap
	if err := s.app.DB().NewQuery("SELECT id FROM bookings LIMIT 1").All(&records); err != nil {
		return fmt.Errorf("store probe: %w", err)
	}
	return nil
}
