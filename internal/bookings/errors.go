package bookings

import (
	"errors"
	"fmt"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

var (
	// ErrInvalidDate is returned when the date is malformed or in the past
	ErrInvalidDate = scheduling.ErrInvalidDate

	// ErrInvalidAppointmentType is returned for unsupported appointment types
	ErrInvalidAppointmentType = scheduling.ErrInvalidAppointmentType

	// ErrInvalidPatient is returned when patient contact details are incomplete
	ErrInvalidPatient = errors.New("invalid patient details")

	// ErrInvalidBookingRequest is returned when a required booking field is empty
	ErrInvalidBookingRequest = errors.New("invalid booking request")

	// ErrInvalidSchedule is returned when an override slot list is malformed
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrSlotNotFound is returned when the start time is not a slot on that day
	ErrSlotNotFound = errors.New("time slot not found")

	// ErrSlotConflict is returned when the slot already has a booking
	ErrSlotConflict = errors.New("time slot already booked")

	// ErrDuplicateBookingID is returned when a caller-supplied id is already stored
	ErrDuplicateBookingID = errors.New("booking id already exists")

	// ErrBookingNotFound is returned when a booking is not found
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStorageUnavailable is returned when persisted state cannot be read or written
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func storageError(op string, err error) error {
	return fmt.Errorf("bookings: %s: %w: %w", op, ErrStorageUnavailable, err)
}
