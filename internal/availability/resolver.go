package availability

import (
	"context"
	"sort"
	"time"

	"bokari/internal/calendar"
	apperrors "bokari/pkg/errors"
	"bokari/pkg/logger"
	"bokari/pkg/model"
)

// BookingSource is the slice of the booking store the resolver needs: every
// active booking in a range is one more busy interval.
type BookingSource interface {
	FindActiveInRange(ctx context.Context, start, end time.Time) ([]*model.Booking, error)
}

// Resolver computes the bookable slots for a range: candidates derived from
// remote availability markers, minus every interval occupied by a busy remote
// event or an active local booking.
type Resolver struct {
	provider calendar.Provider
	bookings BookingSource
	gen      *Generator
	log      *logger.Logger
}

func NewResolver(provider calendar.Provider, bookings BookingSource, gen *Generator, log *logger.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		bookings: bookings,
		gen:      gen,
		log:      log,
	}
}

// Resolve returns the free slots of the requested duration in [from, to),
// sorted by (date, start) and deduplicated by slot identity. Days without an
// availability marker yield zero slots; there is no "always open" fallback.
// If the calendar source cannot be reached at all the caller gets a
// SOURCE_UNAVAILABLE error rather than a silent empty list.
func (r *Resolver) Resolve(ctx context.Context, from, to time.Time, durationMin int) ([]model.Slot, error) {
	events, err := r.provider.ListEvents(ctx, from, to)
	if err != nil {
		r.log.Error("calendar source unavailable for availability read",
			"from", from,
			"to", to,
			"error", err,
		)
		return nil, apperrors.SourceUnavailable("Calendar source is unavailable", err)
	}

	var markers, busy []model.RemoteEvent
	for _, e := range events {
		if e.Busy() {
			busy = append(busy, e)
		} else {
			markers = append(markers, e)
		}
	}

	bookings, err := r.bookings.FindActiveInRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load active bookings", err)
	}

	seen := map[string]struct{}{}
	var free []model.Slot
	for _, marker := range markers {
		// The marker's own span is the availability window.
		for _, slot := range r.gen.GenerateSpan(marker.Start, marker.End, durationMin) {
			key := slot.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if r.slotBlocked(slot, busy, bookings) {
				continue
			}
			free = append(free, slot)
		}
	}

	sort.Slice(free, func(i, j int) bool {
		if free[i].Date != free[j].Date {
			return free[i].Date < free[j].Date
		}
		return free[i].StartTime.Before(free[j].StartTime)
	})

	r.log.Debug("availability resolved",
		"from", from,
		"to", to,
		"markers", len(markers),
		"busy_events", len(busy),
		"active_bookings", len(bookings),
		"free_slots", len(free),
	)
	return free, nil
}

// SlotFree re-verifies a single slot, scoped to the slot's own interval. The
// booking coordinator calls this between lock acquisition and the remote
// create, to catch events that appeared after the availability read.
func (r *Resolver) SlotFree(ctx context.Context, slot model.Slot) (bool, error) {
	free, err := r.Resolve(ctx, slot.StartTime, slot.EndTime, slot.DurationMin)
	if err != nil {
		return false, err
	}
	for _, f := range free {
		if f.Key() == slot.Key() {
			return true, nil
		}
	}
	return false, nil
}

func (r *Resolver) slotBlocked(slot model.Slot, busy []model.RemoteEvent, bookings []*model.Booking) bool {
	for _, e := range busy {
		if slot.Overlaps(e.Start, e.End) {
			return true
		}
	}
	for _, b := range bookings {
		if slot.Overlaps(b.SlotStart, b.SlotEnd) {
			return true
		}
	}
	return false
}
