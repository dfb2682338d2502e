package reconcile

import (
	"context"
	"sync"
	"time"

	"bokari/pkg/logger"
	"bokari/pkg/model"
)

// Reconciler is the single operation the cache wraps.
type Reconciler interface {
	Reconcile(ctx context.Context) (model.SyncSnapshot, error)
}

// SyncCache throttles reconciliation under read bursts and is the single
// entry point for running a pass: read-triggered, forced and interval-driven
// runs all serialize on the mutex, so two passes can never overlap and cancel
// the same booking twice. A burst arriving while one pass is in flight waits
// for it and is then served from the fresh snapshot instead of triggering its
// own pass.
type SyncCache struct {
	mu         sync.Mutex
	reconciler Reconciler
	ttl        time.Duration
	snapshot   model.SyncSnapshot
	log        *logger.Logger
	now        func() time.Time
}

func NewSyncCache(reconciler Reconciler, ttl time.Duration, log *logger.Logger) *SyncCache {
	return &SyncCache{
		reconciler: reconciler,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
	}
}

// SyncIfNeeded returns the cached snapshot when it is still fresh, running a
// new reconciliation pass otherwise. force always runs a pass. A pass that
// finished with per-booking errors still produces a usable snapshot; it is
// cached so a flapping provider cannot turn every read into a pass.
func (c *SyncCache) SyncIfNeeded(ctx context.Context, force bool) (model.SyncSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.snapshot.Fresh(c.now(), c.ttl) {
		return c.snapshot, nil
	}

	snapshot, err := c.reconciler.Reconcile(ctx)
	if err != nil {
		return snapshot, err
	}
	c.snapshot = snapshot
	return snapshot, nil
}

// Run executes forced passes on a fixed interval until the context is
// cancelled. Each tick goes through SyncIfNeeded so interval-driven passes
// hold the same mutex as read-triggered and forced ones. Errors are already
// logged per pass; the loop never stops on them.
func (c *SyncCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Info("Background reconciliation started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("Background reconciliation stopped")
			return
		case <-ticker.C:
			if _, err := c.SyncIfNeeded(ctx, true); err != nil {
				c.log.Warn("Background reconciliation pass failed", "error", err)
			}
		}
	}
}

// Last returns the most recent snapshot without triggering a pass.
func (c *SyncCache) Last() model.SyncSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}
