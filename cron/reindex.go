package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// IndexRefresher is the index maintenance the ticker drives.
type IndexRefresher interface {
	RefreshIndex(ctx context.Context) error
}

// StartIndexRefresher refreshes the local index every interval until ctx ends.
// A zero interval disables it.
func StartIndexRefresher(ctx context.Context, r IndexRefresher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("periodic index refresh disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.RefreshIndex(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("periodic index refresh failed", zap.Error(err))
				}
			}
		}
	}()
}
