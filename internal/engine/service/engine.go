package service

import (
	"context"
	"time"

	bookingservice "bokari/internal/bookings/service"
	"bokari/pkg/config"
	apperrors "bokari/pkg/errors"
	"bokari/pkg/model"
)

// SlotResolver computes bookable slots from the live calendar and the
// booking store.
type SlotResolver interface {
	Resolve(ctx context.Context, from, to time.Time, durationMin int) ([]model.Slot, error)
}

// Syncer runs (or reuses) a reconciliation pass before a read.
type Syncer interface {
	SyncIfNeeded(ctx context.Context, force bool) (model.SyncSnapshot, error)
}

// EngineService is the single inbound surface of the engine. Every consumer
// operation goes through it: availability reads, bookings, cancellations and
// forced reconciliation.
type EngineService interface {
	GetAvailableSlots(ctx context.Context, from, to time.Time, durationMin int, forceSync bool) ([]model.Slot, model.SyncSnapshot, error)
	BookSlot(ctx context.Context, slotKey string, customer model.CustomerInfo) (*model.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
	GetBooking(ctx context.Context, bookingID string) (*model.Booking, error)
	ForceReconcile(ctx context.Context) (model.SyncSnapshot, error)
}

type engineService struct {
	resolver SlotResolver
	fallback SlotResolver
	syncer   Syncer
	bookings bookingservice.BookingService
	cfg      *config.Config
}

// NewEngineService builds the facade. fallback is the schedule served when
// the live source is unreachable; nil means unavailability propagates to the
// caller unchanged.
func NewEngineService(resolver, fallback SlotResolver, syncer Syncer, bookings bookingservice.BookingService, cfg *config.Config) EngineService {
	return &engineService{
		resolver: resolver,
		fallback: fallback,
		syncer:   syncer,
		bookings: bookings,
		cfg:      cfg,
	}
}

// GetAvailableSlots runs a reconciliation pass first so that bookings whose
// remote event vanished do not keep blocking their slots, then resolves
// availability from the live calendar. durationMin <= 0 means the configured
// default slot duration. A failed pass is reported in the snapshot but does
// not abort the read: the resolver consults the live source itself and
// surfaces its own unavailability.
func (s *engineService) GetAvailableSlots(ctx context.Context, from, to time.Time, durationMin int, forceSync bool) ([]model.Slot, model.SyncSnapshot, error) {
	if from.IsZero() {
		from = time.Now().In(s.cfg.Location)
	}
	if to.IsZero() {
		to = from.Add(s.cfg.ReconcileLookahead)
	}
	if durationMin <= 0 {
		durationMin = s.cfg.DefaultSlotDurationMin
	}

	snapshot, err := s.syncer.SyncIfNeeded(ctx, forceSync)
	if err != nil {
		s.cfg.Log.Warn("Reconciliation before availability read failed", "error", err)
	}

	slots, err := s.resolver.Resolve(ctx, from, to, durationMin)
	if err != nil {
		if s.fallback != nil && apperrors.IsCode(err, apperrors.CodeSourceUnavailable) {
			s.cfg.Log.Warn("Calendar source unavailable; serving the fallback schedule", "error", err)
			fallbackSlots, fbErr := s.fallback.Resolve(ctx, from, to, durationMin)
			if fbErr != nil {
				s.cfg.Log.Error("Fallback schedule failed", "error", fbErr)
				return nil, snapshot, err
			}
			return fallbackSlots, snapshot, nil
		}
		return nil, snapshot, err
	}
	return slots, snapshot, nil
}

func (s *engineService) BookSlot(ctx context.Context, slotKey string, customer model.CustomerInfo) (*model.Booking, error) {
	return s.bookings.Book(ctx, slotKey, customer)
}

func (s *engineService) CancelBooking(ctx context.Context, bookingID string) error {
	return s.bookings.Cancel(ctx, bookingID)
}

func (s *engineService) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *engineService) ForceReconcile(ctx context.Context) (model.SyncSnapshot, error) {
	return s.syncer.SyncIfNeeded(ctx, true)
}
