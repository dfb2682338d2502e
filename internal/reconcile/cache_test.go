package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bokari/internal/notify"
	"bokari/pkg/model"
)

type countingReconciler struct {
	calls atomic.Int32
	err   error
}

func (c *countingReconciler) Reconcile(ctx context.Context) (model.SyncSnapshot, error) {
	n := c.calls.Add(1)
	return model.SyncSnapshot{ComputedAt: time.Now(), Cancelled: int(n)}, c.err
}

func TestSyncIfNeededServesFreshSnapshot(t *testing.T) {
	rec := &countingReconciler{}
	cache := NewSyncCache(rec, 30*time.Second, testLogger())

	first, err := cache.SyncIfNeeded(context.Background(), false)
	require.NoError(t, err)
	second, err := cache.SyncIfNeeded(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), rec.calls.Load(), "a fresh snapshot must be reused")
	assert.Equal(t, first, second)
}

func TestSyncIfNeededForceAlwaysRuns(t *testing.T) {
	rec := &countingReconciler{}
	cache := NewSyncCache(rec, 30*time.Second, testLogger())

	_, err := cache.SyncIfNeeded(context.Background(), false)
	require.NoError(t, err)
	_, err = cache.SyncIfNeeded(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), rec.calls.Load())
}

func TestSyncIfNeededExpiredSnapshotRefreshes(t *testing.T) {
	rec := &countingReconciler{}
	cache := NewSyncCache(rec, 30*time.Second, testLogger())

	current := time.Now()
	cache.now = func() time.Time { return current }

	_, err := cache.SyncIfNeeded(context.Background(), false)
	require.NoError(t, err)

	current = current.Add(31 * time.Second)
	_, err = cache.SyncIfNeeded(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, int32(2), rec.calls.Load())
}

func TestSyncIfNeededBurstTriggersSinglePass(t *testing.T) {
	rec := &countingReconciler{}
	cache := NewSyncCache(rec, 30*time.Second, testLogger())

	const readers = 25
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.SyncIfNeeded(context.Background(), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), rec.calls.Load(), "a concurrent read burst must trigger exactly one pass")
}

func TestConcurrentForcedPassesDispatchOnce(t *testing.T) {
	repo := &mockRepository{
		candidates: []*model.Booking{futureBooking("b1", "evt-1")},
	}
	provider := &mockProvider{}
	notifier := &recordingNotifier{}
	svc := NewService(repo, provider, notifier, 30*24*time.Hour, testLogger())
	cache := NewSyncCache(svc, 30*time.Second, testLogger())

	// Both passes see the same vanished remote event. Serialization means
	// the second pass runs after the first has cancelled the booking, so
	// the booking has left the candidate set and only one cancellation
	// notification ever goes out.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.SyncIfNeeded(context.Background(), true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{notify.KindCancellation + ":b1"}, notifier.all())
	assert.Equal(t, model.BookingCancelled, repo.updatedStatus["b1"])
}

func TestSyncIfNeededFailedPassNotCached(t *testing.T) {
	rec := &countingReconciler{err: assert.AnError}
	cache := NewSyncCache(rec, 30*time.Second, testLogger())

	_, err := cache.SyncIfNeeded(context.Background(), false)
	require.Error(t, err)
	_, err = cache.SyncIfNeeded(context.Background(), false)
	require.Error(t, err)

	assert.Equal(t, int32(2), rec.calls.Load(), "a failed pass must not be served from cache")
}
