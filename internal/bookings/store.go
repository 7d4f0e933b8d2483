package bookings

import (
	"context"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

// Store persists bookings. AddBooking must reject a second booking for the same
// (date, time) even when called concurrently.
type Store interface {
	ListBookings(ctx context.Context) (map[string]Booking, error)
	AddBooking(ctx context.Context, booking Booking) (Booking, error)
	BookedSlots(ctx context.Context, date string) (map[string]struct{}, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
}

// ScheduleStore holds optional per-date slot overrides.
type ScheduleStore interface {
	Slots(ctx context.Context, date string) ([]scheduling.TimeSlot, bool, error)
	SetSlots(ctx context.Context, date string, slots []scheduling.TimeSlot) error
}
