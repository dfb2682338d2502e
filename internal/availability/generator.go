package availability

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"bokari/pkg/model"
)

// Generator expands availability spans into fixed-duration candidate slots.
// It is pure apart from the injected clock: the same inputs at the same
// instant always produce the same slots, and slots that start at or before
// "now" are never emitted.
type Generator struct {
	loc *time.Location
	now func() time.Time
}

func NewGenerator(loc *time.Location, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{loc: loc, now: now}
}

// Generate expands a declared availability window over [from, to), sorted by
// (date, start). The window recurs per its RRULE, or falls on its single
// one-off date. Slots stay on the window's own grid; boundary-day slots that
// poke outside [from, to) are dropped rather than shifted.
func (g *Generator) Generate(window model.AvailabilityWindow, from, to time.Time) ([]model.Slot, error) {
	days, err := g.occurrenceDays(window, from, to)
	if err != nil {
		return nil, err
	}

	dayStart, err := time.ParseInLocation("15:04", window.StartTime, g.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid window start time %q: %w", window.StartTime, err)
	}
	dayEnd, err := time.ParseInLocation("15:04", window.EndTime, g.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid window end time %q: %w", window.EndTime, err)
	}

	var slots []model.Slot
	for _, day := range days {
		start := time.Date(day.Year(), day.Month(), day.Day(), dayStart.Hour(), dayStart.Minute(), 0, 0, g.loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), dayEnd.Hour(), dayEnd.Minute(), 0, 0, g.loc)
		for _, slot := range g.GenerateSpan(start, end, window.SlotDurationMin) {
			if slot.StartTime.Before(from) || slot.EndTime.After(to) {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// GenerateSpan walks [start, end) in duration increments and emits every slot
// that fits entirely inside the span and starts strictly after now. The
// resolver uses this directly for availability-marker events, whose own span
// is the window.
func (g *Generator) GenerateSpan(start, end time.Time, durationMin int) []model.Slot {
	if durationMin <= 0 || !end.After(start) {
		return nil
	}

	now := g.now()
	step := time.Duration(durationMin) * time.Minute

	var slots []model.Slot
	for cur := start; ; cur = cur.Add(step) {
		slotEnd := cur.Add(step)
		if slotEnd.After(end) {
			break
		}
		if !cur.After(now) {
			continue
		}
		local := cur.In(g.loc)
		slots = append(slots, model.Slot{
			Date:        local.Format("2006-01-02"),
			StartTime:   local,
			EndTime:     slotEnd.In(g.loc),
			DurationMin: durationMin,
		})
	}
	return slots
}

func (g *Generator) occurrenceDays(window model.AvailabilityWindow, from, to time.Time) ([]time.Time, error) {
	if window.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", window.Date, g.loc)
		if err != nil {
			return nil, fmt.Errorf("invalid window date %q: %w", window.Date, err)
		}
		if day.Add(24 * time.Hour).Before(from) || day.After(to) {
			return nil, nil
		}
		return []time.Time{day}, nil
	}

	if window.RRule == "" {
		return nil, fmt.Errorf("availability window needs a date or a recurrence rule")
	}

	rr, err := rrule.StrToRRule(window.RRule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", window.RRule, err)
	}
	dtstart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, g.loc)
	rr.DTStart(dtstart)

	return rr.Between(dtstart, to, true), nil
}
