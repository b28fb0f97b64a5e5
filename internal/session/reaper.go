package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReapLoop deletes sessions idle for longer than ttl, once per interval,
// until ctx is cancelled. Run it alongside a serving app so rows for
// visitors who never return do not accumulate forever.
func ReapLoop(ctx context.Context, repo Repository, ttl, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteStale(ttl)
			if err != nil {
				logger.Warn("failed to reap stale sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("reaped stale sessions", zap.Int64("count", n))
			}
		}
	}
}
