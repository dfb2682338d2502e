package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingserrors "bokari/internal/bookings/errors"
	"bokari/internal/bookings/validator"
	"bokari/internal/locks"
	"bokari/internal/notify"
	"bokari/pkg/config"
	apperrors "bokari/pkg/errors"
	"bokari/pkg/logger"
	"bokari/pkg/model"

	mongotx "bokari/pkg/db/mongo"
)

type mockRepository struct {
	insertFunc       func(ctx context.Context, booking *model.Booking) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Booking, error)
	updateStatusFunc func(ctx context.Context, id string, status string) error
}

func (m *mockRepository) Insert(ctx context.Context, booking *model.Booking) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, booking)
	}
	booking.ID = "booking-1"
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockRepository) FindActiveBySlot(ctx context.Context, slot model.Slot) (*model.Booking, error) {
	return nil, bookingserrors.ErrNotFound
}

func (m *mockRepository) FindActiveInRange(ctx context.Context, start, end time.Time) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockRepository) FindActiveWithRemoteEvent(ctx context.Context, from, to time.Time) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockVerifier struct {
	free bool
	err  error
}

func (m *mockVerifier) SlotFree(ctx context.Context, slot model.Slot) (bool, error) {
	return m.free, m.err
}

type mockProvider struct {
	createFunc  func(ctx context.Context, start, end time.Time, metadata map[string]string) (string, error)
	deleteFunc  func(ctx context.Context, eventID string) error
	deleteCalls atomic.Int32
}

func (m *mockProvider) ListEvents(ctx context.Context, from, to time.Time) ([]model.RemoteEvent, error) {
	return nil, nil
}

func (m *mockProvider) CreateEvent(ctx context.Context, start, end time.Time, metadata map[string]string) (string, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, start, end, metadata)
	}
	return "evt-1", nil
}

func (m *mockProvider) DeleteEvent(ctx context.Context, eventID string) error {
	m.deleteCalls.Add(1)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, eventID)
	}
	return nil
}

func (m *mockProvider) EventExists(ctx context.Context, eventID string) (bool, error) {
	return true, nil
}

type mockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (m *mockNotifier) Dispatch(kind string, booking *model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, kind)
}

func (m *mockNotifier) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LockTTL:        5 * time.Minute,
		PersistRetries: 3,
		Location:       time.UTC,
		Log:            logger.New(logger.Config{Level: logger.LevelError, Format: logger.FormatText, Service: "test"}),
	}
}

func newTestService(t *testing.T, repo *mockRepository, verifier *mockVerifier, provider *mockProvider, notifier *mockNotifier) (BookingService, *locks.Manager) {
	t.Helper()
	cfg := testConfig(t)
	lm := locks.NewManager(time.Minute, time.Now)
	t.Cleanup(lm.Stop)
	v := validator.NewBookingValidator(cfg.Log)
	return NewBookingService(repo, lm, verifier, provider, notifier, v, cfg), lm
}

func validCustomer() model.CustomerInfo {
	return model.CustomerInfo{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+4512345678",
	}
}

func futureSlotKey(t *testing.T) string {
	t.Helper()
	d := time.Now().UTC().AddDate(0, 0, 7)
	return d.Format("2006-01-02") + "/09:00-10:00"
}

func TestBookSuccess(t *testing.T) {
	repo := &mockRepository{}
	provider := &mockProvider{}
	notifier := &mockNotifier{}
	svc, _ := newTestService(t, repo, &mockVerifier{free: true}, provider, notifier)

	booking, err := svc.Book(context.Background(), futureSlotKey(t), validCustomer())
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
	assert.Equal(t, "evt-1", booking.RemoteEventID)
	assert.Equal(t, []string{notify.KindConfirmation}, notifier.kinds())
}

func TestBookReleasesLockOnSuccess(t *testing.T) {
	repo := &mockRepository{}
	svc, lm := newTestService(t, repo, &mockVerifier{free: true}, &mockProvider{}, &mockNotifier{})

	key := futureSlotKey(t)
	_, err := svc.Book(context.Background(), key, validCustomer())
	require.NoError(t, err)
	assert.False(t, lm.IsLocked(key), "lock must be released after a successful booking")
}

func TestBookLockedSlotConflicts(t *testing.T) {
	svc, lm := newTestService(t, &mockRepository{}, &mockVerifier{free: true}, &mockProvider{}, &mockNotifier{})

	key := futureSlotKey(t)
	_, ok := lm.Acquire(key, time.Minute)
	require.True(t, ok)

	_, err := svc.Book(context.Background(), key, validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.True(t, errors.Is(err, bookingserrors.ErrSlotLocked))
}

func TestBookInvalidSlotKey(t *testing.T) {
	svc, _ := newTestService(t, &mockRepository{}, &mockVerifier{free: true}, &mockProvider{}, &mockNotifier{})

	_, err := svc.Book(context.Background(), "not-a-slot", validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestBookInvalidCustomer(t *testing.T) {
	svc, _ := newTestService(t, &mockRepository{}, &mockVerifier{free: true}, &mockProvider{}, &mockNotifier{})

	customer := validCustomer()
	customer.Email = "not-an-email"
	_, err := svc.Book(context.Background(), futureSlotKey(t), customer)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestBookSlotNoLongerFree(t *testing.T) {
	provider := &mockProvider{
		createFunc: func(ctx context.Context, start, end time.Time, metadata map[string]string) (string, error) {
			t.Fatal("CreateEvent must not be called when the slot is not free")
			return "", nil
		},
	}
	svc, lm := newTestService(t, &mockRepository{}, &mockVerifier{free: false}, provider, &mockNotifier{})

	key := futureSlotKey(t)
	_, err := svc.Book(context.Background(), key, validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.False(t, lm.IsLocked(key), "lock must be released on conflict")
}

func TestBookVerifierSourceUnavailable(t *testing.T) {
	verifier := &mockVerifier{err: apperrors.SourceUnavailable("Calendar source is unreachable", nil)}
	svc, _ := newTestService(t, &mockRepository{}, verifier, &mockProvider{}, &mockNotifier{})

	_, err := svc.Book(context.Background(), futureSlotKey(t), validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeSourceUnavailable))
}

func TestBookRemoteCreateFailure(t *testing.T) {
	provider := &mockProvider{
		createFunc: func(ctx context.Context, start, end time.Time, metadata map[string]string) (string, error) {
			return "", assert.AnError
		},
	}
	repo := &mockRepository{
		insertFunc: func(ctx context.Context, booking *model.Booking) error {
			t.Fatal("Insert must not be called when the remote create fails")
			return nil
		},
	}
	notifier := &mockNotifier{}
	svc, _ := newTestService(t, repo, &mockVerifier{free: true}, provider, notifier)

	_, err := svc.Book(context.Background(), futureSlotKey(t), validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvider))
	assert.Empty(t, notifier.kinds())
}

func TestBookDuplicateSlotCompensatesRemoteEvent(t *testing.T) {
	provider := &mockProvider{}
	repo := &mockRepository{
		insertFunc: func(ctx context.Context, booking *model.Booking) error {
			return bookingserrors.ErrSlotTaken
		},
	}
	svc, _ := newTestService(t, repo, &mockVerifier{free: true}, provider, &mockNotifier{})

	_, err := svc.Book(context.Background(), futureSlotKey(t), validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.Equal(t, int32(1), provider.deleteCalls.Load(), "the redundant remote event must be deleted")
}

func TestBookPersistenceFailureKeepsRemoteEvent(t *testing.T) {
	provider := &mockProvider{}
	attempts := 0
	repo := &mockRepository{
		insertFunc: func(ctx context.Context, booking *model.Booking) error {
			attempts++
			return assert.AnError
		},
	}
	svc, _ := newTestService(t, repo, &mockVerifier{free: true}, provider, &mockNotifier{})

	_, err := svc.Book(context.Background(), futureSlotKey(t), validCustomer())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePersistence))
	assert.True(t, errors.Is(err, bookingserrors.ErrRemoteOrphan))
	assert.Equal(t, 3, attempts, "insert must be retried up to the configured limit")
	assert.Equal(t, int32(0), provider.deleteCalls.Load(), "the remote event must not be deleted speculatively")
}

func TestBookConcurrentSameSlotSingleWinner(t *testing.T) {
	var inserted atomic.Int32
	repo := &mockRepository{
		insertFunc: func(ctx context.Context, booking *model.Booking) error {
			if inserted.Add(1) > 1 {
				return bookingserrors.ErrSlotTaken
			}
			booking.ID = "booking-1"
			return nil
		},
	}
	svc, _ := newTestService(t, repo, &mockVerifier{free: true}, &mockProvider{}, &mockNotifier{})

	key := futureSlotKey(t)
	const workers = 20
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), key, validCustomer())
			if err == nil {
				wins.Add(1)
				return
			}
			if apperrors.IsCode(err, apperrors.CodeConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one concurrent request may win the slot")
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func TestCancelSuccess(t *testing.T) {
	stored := &model.Booking{
		ID:            "booking-1",
		SlotDate:      "2025-03-10",
		Status:        model.BookingConfirmed,
		RemoteEventID: "evt-1",
	}
	var finalStatus string
	repo := &mockRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			cp := *stored
			return &cp, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			finalStatus = status
			return nil
		},
	}
	provider := &mockProvider{}
	notifier := &mockNotifier{}
	svc, _ := newTestService(t, repo, &mockVerifier{}, provider, notifier)

	err := svc.Cancel(context.Background(), "booking-1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, finalStatus)
	assert.Equal(t, int32(1), provider.deleteCalls.Load())
	assert.Equal(t, []string{notify.KindCancellation}, notifier.kinds())
}

func TestCancelAlreadyCancelledIsNoOp(t *testing.T) {
	repo := &mockRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: model.BookingCancelled}, nil
		},
	}
	provider := &mockProvider{}
	notifier := &mockNotifier{}
	svc, _ := newTestService(t, repo, &mockVerifier{}, provider, notifier)

	err := svc.Cancel(context.Background(), "booking-1")
	require.NoError(t, err)
	assert.Equal(t, int32(0), provider.deleteCalls.Load())
	assert.Empty(t, notifier.kinds())
}

func TestCancelRemoteDeleteFailureKeepsBookingActive(t *testing.T) {
	repo := &mockRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: model.BookingConfirmed, RemoteEventID: "evt-1"}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status string) error {
			t.Fatal("status must not change when the remote delete fails")
			return nil
		},
	}
	provider := &mockProvider{
		deleteFunc: func(ctx context.Context, eventID string) error {
			return assert.AnError
		},
	}
	svc, _ := newTestService(t, repo, &mockVerifier{}, provider, &mockNotifier{})

	err := svc.Cancel(context.Background(), "booking-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvider))
}

func TestCancelNotFound(t *testing.T) {
	svc, _ := newTestService(t, &mockRepository{}, &mockVerifier{}, &mockProvider{}, &mockNotifier{})

	err := svc.Cancel(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
