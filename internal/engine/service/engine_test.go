package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bokari/pkg/config"
	apperrors "bokari/pkg/errors"
	"bokari/pkg/logger"
	"bokari/pkg/model"
)

type stubResolver struct {
	slots       []model.Slot
	err         error
	calls       int
	gotDuration int
}

func (s *stubResolver) Resolve(ctx context.Context, from, to time.Time, durationMin int) ([]model.Slot, error) {
	s.calls++
	s.gotDuration = durationMin
	return s.slots, s.err
}

type stubSyncer struct {
	snapshot model.SyncSnapshot
	err      error
}

func (s *stubSyncer) SyncIfNeeded(ctx context.Context, force bool) (model.SyncSnapshot, error) {
	return s.snapshot, s.err
}

type stubBookings struct{}

func (stubBookings) Book(ctx context.Context, slotKey string, customer model.CustomerInfo) (*model.Booking, error) {
	return &model.Booking{ID: "booking-1"}, nil
}

func (stubBookings) Cancel(ctx context.Context, bookingID string) error { return nil }

func (stubBookings) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Location:               time.UTC,
		ReconcileLookahead:     30 * 24 * time.Hour,
		DefaultSlotDurationMin: 60,
		Log:                    logger.New(logger.Config{Level: logger.LevelError, Format: logger.FormatText, Service: "test"}),
	}
}

func TestGetAvailableSlotsDefaultDuration(t *testing.T) {
	resolver := &stubResolver{}
	svc := NewEngineService(resolver, nil, &stubSyncer{}, stubBookings{}, testConfig())

	_, _, err := svc.GetAvailableSlots(context.Background(), time.Time{}, time.Time{}, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 60, resolver.gotDuration)
}

func TestGetAvailableSlotsRequestedDuration(t *testing.T) {
	resolver := &stubResolver{}
	svc := NewEngineService(resolver, nil, &stubSyncer{}, stubBookings{}, testConfig())

	_, _, err := svc.GetAvailableSlots(context.Background(), time.Time{}, time.Time{}, 30, false)
	require.NoError(t, err)
	assert.Equal(t, 30, resolver.gotDuration)
}

func TestGetAvailableSlotsFallbackOnSourceUnavailable(t *testing.T) {
	resolver := &stubResolver{err: apperrors.SourceUnavailable("calendar down", nil)}
	fallback := &stubResolver{slots: []model.Slot{{Date: "2025-03-10", DurationMin: 30}}}
	svc := NewEngineService(resolver, fallback, &stubSyncer{}, stubBookings{}, testConfig())

	slots, _, err := svc.GetAvailableSlots(context.Background(), time.Time{}, time.Time{}, 30, false)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "2025-03-10", slots[0].Date)
	assert.Equal(t, 30, fallback.gotDuration)
}

func TestGetAvailableSlotsNoFallbackPropagatesUnavailability(t *testing.T) {
	resolver := &stubResolver{err: apperrors.SourceUnavailable("calendar down", nil)}
	svc := NewEngineService(resolver, nil, &stubSyncer{}, stubBookings{}, testConfig())

	_, _, err := svc.GetAvailableSlots(context.Background(), time.Time{}, time.Time{}, 0, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeSourceUnavailable))
}

func TestGetAvailableSlotsFallbackFailureKeepsSourceError(t *testing.T) {
	resolver := &stubResolver{err: apperrors.SourceUnavailable("calendar down", nil)}
	fallback := &stubResolver{err: assert.AnError}
	svc := NewEngineService(resolver, fallback, &stubSyncer{}, stubBookings{}, testConfig())

	_, _, err := svc.GetAvailableSlots(context.Background(), time.Time{}, time.Time{}, 0, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeSourceUnavailable))
}

func TestGetAvailableSlotsFallbackNotUsedForOtherErrors(t *testing.T) {
	resolver := &stubResolver{err: apperrors.Internal("store down", assert.AnError)}
	fallback := &stubResolver{}
	svc := NewEngineService(resolver, fallback, &stubSyncer{}, stubBookings{}, testConfig())

	_, _, err := svc.GetAvailableSlots(context.Background(), time.Time{}, time.Time{}, 0, false)
	require.Error(t, err)
	assert.Equal(t, 0, fallback.calls)
}
