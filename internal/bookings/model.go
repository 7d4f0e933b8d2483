// Package bookings owns appointment persistence and the availability/booking
// reconciliation rules: no double-booking, past-date rejection, override-aware slots.
package bookings

import (
	"fmt"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

// StatusConfirmed is the only status a stored booking can have.
const StatusConfirmed = "confirmed"

// Patient holds the contact details captured at booking time.
type Patient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking is an append-only appointment record.
type Booking struct {
	ID               string                     `json:"booking_id"`
	Date             string                     `json:"date"`
	Time             string                     `json:"time"`
	DurationMinutes  int                        `json:"duration_minutes"`
	AppointmentType  scheduling.AppointmentType `json:"appointment_type"`
	Patient          Patient                    `json:"patient"`
	Reason           string                     `json:"reason"`
	ConfirmationCode string                     `json:"confirmation_code,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// BookingRequest is the POST /api/calendly/book payload.
type BookingRequest struct {
	AppointmentType string  `json:"appointment_type"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	Patient         Patient `json:"patient"`
	Reason          string  `json:"reason"`
}

// Confirmation is returned after a successful booking.
type Confirmation struct {
	BookingID        string  `json:"booking_id"`
	Status           string  `json:"status"`
	ConfirmationCode string  `json:"confirmation_code"`
	Details          Booking `json:"details"`
}

// Availability is the merged slot view for a day.
type Availability struct {
	Date           string                `json:"date"`
	AvailableSlots []scheduling.TimeSlot `json:"available_slots"`
}

// FormatBookingID renders the human-readable id APPT-{date}-{seq:03d}.
func FormatBookingID(date string, seq int64) string {
	return fmt.Sprintf("APPT-%s-%03d", date, seq)
}

// FormatConfirmationCode renders CNF{seq:05d}.
func FormatConfirmationCode(seq int64) string {
	return fmt.Sprintf("CNF%05d", seq)
}

// stamp fills the store-assigned fields of a new booking.
func stamp(b Booking, seq int64, now time.Time) Booking {
	if b.ID == "" {
		b.ID = FormatBookingID(b.Date, seq)
	}
	if b.ConfirmationCode == "" {
		b.ConfirmationCode = FormatConfirmationCode(seq)
	}
	b.CreatedAt = now.UTC().Truncate(time.Microsecond)
	return b
}
