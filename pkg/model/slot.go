package model

import (
	"fmt"
	"strings"
	"time"
)

// Slot is a derived candidate reservation interval. It is never persisted on
// its own; its identity is the (date, start, end) tuple.
type Slot struct {
	Date        string    `json:"date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMin int       `json:"duration_min"`
}

// Key returns the canonical slot identity string, e.g.
// "2025-03-10/09:00-10:00". Bookings and advisory locks are keyed by it.
func (s Slot) Key() string {
	return fmt.Sprintf("%s/%s-%s",
		s.Date,
		s.StartTime.Format("15:04"),
		s.EndTime.Format("15:04"),
	)
}

// Overlaps reports whether the slot intersects the [start, end) interval.
// Touching boundaries do not count as overlap.
func (s Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

// ParseSlotKey parses a slot identity string produced by Slot.Key. Times are
// interpreted in the given location.
func ParseSlotKey(key string, loc *time.Location) (Slot, error) {
	datePart, timePart, ok := strings.Cut(key, "/")
	if !ok {
		return Slot{}, fmt.Errorf("malformed slot key: %q", key)
	}
	startStr, endStr, ok := strings.Cut(timePart, "-")
	if !ok {
		return Slot{}, fmt.Errorf("malformed slot key time range: %q", key)
	}

	day, err := time.ParseInLocation("2006-01-02", datePart, loc)
	if err != nil {
		return Slot{}, fmt.Errorf("malformed slot key date: %q", key)
	}
	start, err := time.ParseInLocation("15:04", startStr, loc)
	if err != nil {
		return Slot{}, fmt.Errorf("malformed slot key start time: %q", key)
	}
	end, err := time.ParseInLocation("15:04", endStr, loc)
	if err != nil {
		return Slot{}, fmt.Errorf("malformed slot key end time: %q", key)
	}

	startAt := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	endAt := time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, loc)
	if !endAt.After(startAt) {
		return Slot{}, fmt.Errorf("slot key end must be after start: %q", key)
	}

	return Slot{
		Date:        datePart,
		StartTime:   startAt,
		EndTime:     endAt,
		DurationMin: int(endAt.Sub(startAt) / time.Minute),
	}, nil
}
