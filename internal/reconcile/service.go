package reconcile

import (
	"context"
	"time"

	"bokari/internal/bookings/repository"
	"bokari/internal/calendar"
	"bokari/internal/notify"
	"bokari/pkg/logger"
	"bokari/pkg/model"
)

// Notifier triggers asynchronous dispatch for bookings cancelled during a
// reconciliation pass.
type Notifier interface {
	Dispatch(kind string, booking *model.Booking)
}

// Service detects bookings whose remote calendar event has disappeared and
// retires them locally. A pass never touches the remote calendar; the
// external source is the authority on its own contents.
type Service struct {
	repo      repository.BookingRepository
	provider  calendar.Provider
	notifier  Notifier
	lookahead time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewService(
	repo repository.BookingRepository,
	provider calendar.Provider,
	notifier Notifier,
	lookahead time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		notifier:  notifier,
		lookahead: lookahead,
		log:       log,
		now:       time.Now,
	}
}

// Reconcile walks active bookings with a remote event inside the lookahead
// window and cancels any whose event no longer exists. Failures checking or
// updating one booking never block the rest; they are counted and the pass
// continues. Running a pass twice in a row is harmless: cancelled bookings
// drop out of the candidate set.
func (s *Service) Reconcile(ctx context.Context) (model.SyncSnapshot, error) {
	now := s.now()
	snapshot := model.SyncSnapshot{ComputedAt: now}

	from := now
	to := now.Add(s.lookahead)

	candidates, err := s.repo.FindActiveWithRemoteEvent(ctx, from, to)
	if err != nil {
		s.log.Error("Reconciliation could not load candidate bookings", "error", err)
		snapshot.Errors++
		return snapshot, err
	}

	knownEvents := make(map[string]struct{}, len(candidates))
	for _, booking := range candidates {
		knownEvents[booking.RemoteEventID] = struct{}{}

		exists, err := s.provider.EventExists(ctx, booking.RemoteEventID)
		if err != nil {
			s.log.Error("Reconciliation could not verify a remote event",
				"id", booking.ID,
				"remote_event_id", booking.RemoteEventID,
				"error", err,
			)
			snapshot.Errors++
			continue
		}
		if exists {
			continue
		}

		if err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingCancelled); err != nil {
			s.log.Error("Reconciliation could not cancel a booking",
				"id", booking.ID,
				"slot", booking.SlotKey(),
				"error", err,
			)
			snapshot.Errors++
			continue
		}

		snapshot.Cancelled++
		snapshot.FreedSlots++
		s.log.Info("Booking cancelled: remote event removed out of band",
			"id", booking.ID,
			"slot", booking.SlotKey(),
			"remote_event_id", booking.RemoteEventID,
		)
		booking.Status = model.BookingCancelled
		s.notifier.Dispatch(notify.KindCancellation, booking)
	}

	s.flagOrphanedEvents(ctx, from, to, knownEvents, &snapshot)

	s.log.Info("Reconciliation pass finished",
		"cancelled", snapshot.Cancelled,
		"freed_slots", snapshot.FreedSlots,
		"errors", snapshot.Errors,
	)
	return snapshot, nil
}

// flagOrphanedEvents surfaces booked-appointment events on the remote
// calendar that no active booking references. These are created by out-of-band
// edits; the engine only reports them, it never adopts or deletes them.
func (s *Service) flagOrphanedEvents(ctx context.Context, from, to time.Time, known map[string]struct{}, snapshot *model.SyncSnapshot) {
	events, err := s.provider.ListEvents(ctx, from, to)
	if err != nil {
		s.log.Warn("Reconciliation could not list remote events for orphan detection", "error", err)
		snapshot.Errors++
		return
	}
	for _, event := range events {
		if event.Kind != model.EventBookedAppointment {
			continue
		}
		if _, ok := known[event.ID]; ok {
			continue
		}
		s.log.Error("Orphaned remote appointment event: no local booking references it",
			"remote_event_id", event.ID,
			"start", event.Start,
			"end", event.End,
		)
	}
}
