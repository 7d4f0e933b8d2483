package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for appointment dates.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for malformed dates and dates before today.
var ErrInvalidDate = errors.New("invalid date")

// Calendar decides what "today" is for booking validation.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar returns a calendar in loc. A nil loc means the server's local zone.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{loc: loc, now: time.Now}
}

// LoadCalendar resolves an IANA zone name; empty means server local time.
func LoadCalendar(name string) (*Calendar, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewCalendar(nil), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load timezone %q: %w", name, err)
	}
	return NewCalendar(loc), nil
}

// WithClock overrides the time source. Used by tests.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	if now != nil {
		c.now = now
	}
	return c
}

// Location returns the calendar's zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Today returns midnight of the current date in the calendar's zone.
func (c *Calendar) Today() time.Time {
	now := c.now().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}

// ParseDate parses a strict YYYY-MM-DD date in the calendar's zone.
func (c *Calendar) ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: use YYYY-MM-DD", ErrInvalidDate)
	}
	return d, nil
}

// ValidateBookable parses raw and rejects dates strictly before today.
func (c *Calendar) ValidateBookable(raw string) (time.Time, error) {
	d, err := c.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if d.Before(c.Today()) {
		return time.Time{}, fmt.Errorf("%w: cannot book appointments in the past", ErrInvalidDate)
	}
	return d, nil
}
