package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"bokari/internal/bookings/repository"
	"bokari/internal/bookings/validator"
	"bokari/internal/calendar"
	"bokari/internal/notify"
	"bokari/pkg/config"
	apperrors "bokari/pkg/errors"
	"bokari/pkg/model"
	"bokari/pkg/sanitizer"

	bookingserrors "bokari/internal/bookings/errors"
)

// SlotVerifier re-checks a single slot's freeness between lock acquisition
// and the remote create. Satisfied by *availability.Resolver.
type SlotVerifier interface {
	SlotFree(ctx context.Context, slot model.Slot) (bool, error)
}

// LockManager is the advisory lock surface the coordinator needs. Release
// takes the token Acquire handed out, so only the owning flow can drop it.
type LockManager interface {
	Acquire(slotKey string, ttl time.Duration) (uint64, bool)
	Release(slotKey string, token uint64)
}

// Notifier triggers asynchronous notification dispatch; its outcome never
// affects booking state.
type Notifier interface {
	Dispatch(kind string, booking *model.Booking)
}

type BookingService interface {
	Book(ctx context.Context, slotKey string, customer model.CustomerInfo) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID string) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
}

// bookingService runs the claim-slot → create-remote-event → persist
// sequence with compensating actions on partial failure.
type bookingService struct {
	repo      repository.BookingRepository
	locks     LockManager
	verifier  SlotVerifier
	provider  calendar.Provider
	notifier  Notifier
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locks LockManager,
	verifier SlotVerifier,
	provider calendar.Provider,
	notifier Notifier,
	bookingValidator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locks:     locks,
		verifier:  verifier,
		provider:  provider,
		notifier:  notifier,
		validator: bookingValidator,
		cfg:       cfg,
	}
}

func (s *bookingService) Book(ctx context.Context, slotKey string, customer model.CustomerInfo) (*model.Booking, error) {
	if err := s.validator.ValidateSlotKey(slotKey); err != nil {
		return nil, apperrors.InvalidInput("Invalid slot identity: " + err.Error())
	}
	slot, err := model.ParseSlotKey(slotKey, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	s.sanitize(&customer)
	if err := s.validator.ValidateCustomer(&customer); err != nil {
		s.cfg.Log.Warn("Booking customer validation failed", "slot", slotKey, "error", err)
		return nil, apperrors.Validation("Customer validation failed", map[string]any{"error": err.Error()})
	}

	// Advisory lock: a fast pre-commit conflict signal. The store's unique
	// index remains the authoritative guard.
	lockToken, ok := s.locks.Acquire(slotKey, s.cfg.LockTTL)
	if !ok {
		return nil, apperrors.Conflict("This time slot is currently being booked by another request. Please try again.").
			WithCause(bookingserrors.ErrSlotLocked)
	}
	defer s.locks.Release(slotKey, lockToken)

	// Re-verify against the live calendar: a remote event may have appeared
	// since the availability read that showed this slot free.
	free, err := s.verifier.SlotFree(ctx, slot)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperrors.Conflict("This time slot is no longer available.")
	}

	// Store-level precheck. Cheaper than creating and then deleting a
	// remote event when the slot is already held locally.
	if _, err := s.repo.FindActiveBySlot(ctx, slot); err == nil {
		return nil, apperrors.Conflict("This time slot has already been booked.")
	} else if !errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing bookings", err)
	}

	// A timed-out create is a failure; it must never be assumed to have
	// silently succeeded.
	remoteEventID, err := s.provider.CreateEvent(ctx, slot.StartTime, slot.EndTime, map[string]string{
		"customer_name":  customer.Name,
		"customer_email": customer.Email,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create remote calendar event", "slot", slotKey, "error", err)
		return nil, apperrors.Provider("Failed to reserve the slot on the calendar", err)
	}

	booking := &model.Booking{
		SlotDate:      slot.Date,
		SlotStart:     slot.StartTime,
		SlotEnd:       slot.EndTime,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		Status:        model.BookingConfirmed,
		RemoteEventID: remoteEventID,
	}

	if err := s.persistWithRetries(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotTaken) {
			// Lost the commit race. The remote event we just created is
			// redundant; removing it is safe because it is ours alone.
			s.compensateRemote(ctx, remoteEventID, slotKey)
			return nil, apperrors.Conflict("This time slot has just been taken.")
		}
		// The remote event stays in place: deleting it speculatively could
		// destroy a reservation the customer believes they hold. Operators
		// pick this up from the log.
		s.cfg.Log.Error("INCONSISTENCY: remote event created but local persistence failed",
			"slot", slotKey,
			"remote_event_id", remoteEventID,
			"error", err,
		)
		return nil, apperrors.Persistence(
			"Booking could not be stored; the calendar reservation needs operator attention",
			fmt.Errorf("%w: %w", bookingserrors.ErrRemoteOrphan, err),
		)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"slot", slotKey,
		"remote_event_id", remoteEventID,
	)
	s.notifier.Dispatch(notify.KindConfirmation, booking)
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID string) error {
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to load booking", err)
	}
	if booking.Status == model.BookingCancelled {
		return nil
	}

	// Remote half first. DeleteEvent is idempotent: an already-deleted
	// event is success, so a retried cancellation converges.
	if booking.RemoteEventID != "" {
		if err := s.provider.DeleteEvent(ctx, booking.RemoteEventID); err != nil {
			s.cfg.Log.Error("Failed to delete remote event during cancellation",
				"id", bookingID,
				"remote_event_id", booking.RemoteEventID,
				"error", err,
			)
			return apperrors.Provider("Failed to remove the calendar reservation; please retry", err)
		}
	}

	if err := s.repo.UpdateStatus(ctx, bookingID, model.BookingCancelled); err != nil {
		s.cfg.Log.Error("Failed to mark booking cancelled",
			"id", bookingID,
			"error", err,
		)
		return apperrors.Persistence("Booking cancellation could not be stored; please retry", err)
	}

	booking.Status = model.BookingCancelled
	s.cfg.Log.Info("Booking cancelled", "id", bookingID, "slot", booking.SlotKey())
	s.notifier.Dispatch(notify.KindCancellation, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// persistWithRetries inserts the booking, retrying transient store failures
// a bounded number of times. A duplicate-key conflict is returned
// immediately: retrying cannot win a slot that is already taken.
func (s *bookingService) persistWithRetries(ctx context.Context, booking *model.Booking) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.PersistRetries; attempt++ {
		err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			return s.repo.Insert(sessCtx, booking)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, bookingserrors.ErrSlotTaken) {
			return err
		}
		lastErr = err
		s.cfg.Log.Warn("Booking persistence attempt failed",
			"attempt", attempt,
			"slot", booking.SlotKey(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return lastErr
}

func (s *bookingService) compensateRemote(ctx context.Context, remoteEventID, slotKey string) {
	if err := s.provider.DeleteEvent(ctx, remoteEventID); err != nil {
		s.cfg.Log.Error("Failed to delete redundant remote event after commit conflict",
			"slot", slotKey,
			"remote_event_id", remoteEventID,
			"error", err,
		)
	}
}

func (s *bookingService) sanitize(c *model.CustomerInfo) {
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Email = sanitizer.NormalizeEmail(c.Email)
	c.Phone = sanitizer.NormalizePhone(c.Phone)
}
