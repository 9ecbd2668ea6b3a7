package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner drops entries that expired before reference.
type Cleaner interface {
	Cleanup(reference time.Time) (int, error)
}

// Sweep returns a job that purges expired entries from c.
func Sweep(name string, c Cleaner, logger *zap.Logger) Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		removed, err := c.Cleanup(time.Now())
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("expired entries removed", zap.String("store", name), zap.Int("count", removed))
		}
		return nil
	}
}
