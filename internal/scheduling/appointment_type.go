package scheduling

import (
	"errors"
	"strings"
)

// AppointmentType identifies the kind of visit being booked.
type AppointmentType string

const (
	Consultation AppointmentType = "consultation"
	FollowUp     AppointmentType = "followup"
	Physical     AppointmentType = "physical"
	Specialist   AppointmentType = "specialist"
)

// ErrInvalidAppointmentType is returned for types outside the supported set.
var ErrInvalidAppointmentType = errors.New("invalid appointment type")

var durations = map[AppointmentType]int{
	Consultation: 30,
	FollowUp:     15,
	Physical:     45,
	Specialist:   60,
}

// ParseAppointmentType accepts the supported types case-insensitively. An empty
// value defaults to a consultation.
func ParseAppointmentType(raw string) (AppointmentType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return Consultation, nil
	}
	t := AppointmentType(raw)
	if _, ok := durations[t]; !ok {
		return "", ErrInvalidAppointmentType
	}
	return t, nil
}

// DurationMinutes returns the visit length for t, or 0 for unknown types.
func (t AppointmentType) DurationMinutes() int {
	return durations[t]
}

// AppointmentTypes lists the supported types in display order.
func AppointmentTypes() []AppointmentType {
	return []AppointmentType{Consultation, FollowUp, Physical, Specialist}
}
