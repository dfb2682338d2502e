package availability

import (
	"context"
	"sort"
	"time"

	apperrors "bokari/pkg/errors"
	"bokari/pkg/logger"
	"bokari/pkg/model"
)

// FallbackSchedule serves slots from an administrator-declared recurring
// window when the live calendar source cannot be read at all. Active local
// bookings still block their slots; remote busy events cannot be consulted
// while the source is down, which is safe because the booking flow re-checks
// the live source and refuses to commit until it is back.
type FallbackSchedule struct {
	window   model.AvailabilityWindow
	gen      *Generator
	bookings BookingSource
	log      *logger.Logger
}

func NewFallbackSchedule(window model.AvailabilityWindow, gen *Generator, bookings BookingSource, log *logger.Logger) *FallbackSchedule {
	return &FallbackSchedule{
		window:   window,
		gen:      gen,
		bookings: bookings,
		log:      log,
	}
}

// Resolve expands the declared window over [from, to) and removes every slot
// an active local booking occupies. durationMin <= 0 means the window's own
// slot duration.
func (f *FallbackSchedule) Resolve(ctx context.Context, from, to time.Time, durationMin int) ([]model.Slot, error) {
	window := f.window
	if durationMin > 0 {
		window.SlotDurationMin = durationMin
	}

	candidates, err := f.gen.Generate(window, from, to)
	if err != nil {
		return nil, apperrors.Internal("Fallback schedule could not be expanded", err)
	}

	bookings, err := f.bookings.FindActiveInRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to load active bookings", err)
	}

	var free []model.Slot
	for _, slot := range candidates {
		if bookingBlocked(slot, bookings) {
			continue
		}
		free = append(free, slot)
	}

	sort.Slice(free, func(i, j int) bool {
		if free[i].Date != free[j].Date {
			return free[i].Date < free[j].Date
		}
		return free[i].StartTime.Before(free[j].StartTime)
	})

	f.log.Warn("availability served from fallback schedule",
		"from", from,
		"to", to,
		"free_slots", len(free),
	)
	return free, nil
}

func bookingBlocked(slot model.Slot, bookings []*model.Booking) bool {
	for _, b := range bookings {
		if slot.Overlaps(b.SlotStart, b.SlotEnd) {
			return true
		}
	}
	return false
}
