package core

// scheduler.go provides the background identity-cache flush.
//
// Long-running processes that share a store with other writers can bound
// how stale a cached instance may get by flushing every manager's cache on
// a fixed interval. The flush is the same operation as ClearObjectsCache;
// managers themselves survive.

import (
	"context"
	"log/slog"
	"time"
)

// StartCacheFlushScheduler clears every manager's identity cache each
// interval until ctx is cancelled. A non-positive interval returns
// immediately.
func (d *Directory) StartCacheFlushScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	d.opts.Logger.Info("cache flush scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.opts.Logger.Info("cache flush scheduler stopped")
			return
		case <-ticker.C:
			d.runCacheFlush()
		}
	}
}

// runCacheFlush performs one flush and logs what it dropped.
func (d *Directory) runCacheFlush() {
	start := time.Now()

	d.mu.RLock()
	managers := make([]*Manager, 0, len(d.managers))
	for _, m := range d.managers {
		managers = append(managers, m)
	}
	d.mu.RUnlock()

	dropped := 0
	for _, m := range managers {
		dropped += m.CachedCount()
		m.ClearObjectsCache()
	}

	d.opts.Logger.Debug("identity caches flushed",
		slog.Int("managers", len(managers)),
		slog.Int("entries_dropped", dropped),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
