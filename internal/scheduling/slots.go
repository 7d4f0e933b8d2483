// Package scheduling generates the canonical bookable slots for a clinic day and
// validates appointment dates and types.
package scheduling

import (
	"errors"
	"fmt"
	"time"
)

const clockLayout = "15:04"

// TimeSlot is a single bookable interval on a day, expressed as HH:MM wall-clock times.
type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// Generator produces the default slot set for days without a schedule override.
type Generator struct {
	start    time.Duration // offset from midnight
	end      time.Duration
	interval time.Duration
}

// DefaultGenerator covers 09:00-17:00 in 30 minute slots.
func DefaultGenerator() *Generator {
	return &Generator{start: 9 * time.Hour, end: 17 * time.Hour, interval: 30 * time.Minute}
}

// NewGenerator builds a generator for the window [start, end) stepping by interval.
func NewGenerator(start, end string, interval time.Duration) (*Generator, error) {
	s, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("scheduling: window start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("scheduling: window end: %w", err)
	}
	if e <= s {
		return nil, errors.New("scheduling: window end must be after start")
	}
	if interval <= 0 || interval%time.Minute != 0 {
		return nil, errors.New("scheduling: interval must be a positive whole number of minutes")
	}
	return &Generator{start: s, end: e, interval: interval}, nil
}

// Slots returns the ordered slots for date, all available. A slot never runs past
// the window end. Every day shares the same window; callers validate the date.
func (g *Generator) Slots(time.Time) []TimeSlot {
	slots := make([]TimeSlot, 0, int((g.end-g.start)/g.interval))
	for cur := g.start; cur+g.interval <= g.end; cur += g.interval {
		slots = append(slots, TimeSlot{
			StartTime: formatClock(cur),
			EndTime:   formatClock(cur + g.interval),
			Available: true,
		})
	}
	return slots
}

// Interval returns the slot length.
func (g *Generator) Interval() time.Duration {
	return g.interval
}

// FindSlot returns the index of the slot starting at startTime, or -1.
func FindSlot(slots []TimeSlot, startTime string) int {
	for i, slot := range slots {
		if slot.StartTime == startTime {
			return i
		}
	}
	return -1
}

// ValidateSlots checks an override slot list: well-formed clocks, start before end,
// no duplicate start times.
func ValidateSlots(slots []TimeSlot) error {
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		s, err := parseClock(slot.StartTime)
		if err != nil {
			return fmt.Errorf("scheduling: slot start %q: %w", slot.StartTime, err)
		}
		e, err := parseClock(slot.EndTime)
		if err != nil {
			return fmt.Errorf("scheduling: slot end %q: %w", slot.EndTime, err)
		}
		if e <= s {
			return fmt.Errorf("scheduling: slot %s-%s ends before it starts", slot.StartTime, slot.EndTime)
		}
		if _, dup := seen[slot.StartTime]; dup {
			return fmt.Errorf("scheduling: duplicate slot start %s", slot.StartTime)
		}
		seen[slot.StartTime] = struct{}{}
	}
	return nil
}

func parseClock(hm string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, hm)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(offset time.Duration) string {
	minutes := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
