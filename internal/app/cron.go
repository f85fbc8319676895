package app

import (
	"context"
	"time"

	"github.com/coursekit/core/internal/modules/community/notification"
	pkgcron "github.com/coursekit/core/internal/pkg/cron"
	sessionpkg "github.com/coursekit/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "purge_expired_sessions",
		Description: "drop session rows past their expiry",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			if err := sessionpkg.PurgeExpired(db, 7*24*time.Hour); err != nil {
				cronLogger.Warn("session purge failed", zap.Error(err))
				return err
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "prune_read_notifications",
		Description: "delete read notifications older than 90 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -90)
			rows, err := notification.PruneRead(db, cutoff)
			if err != nil {
				cronLogger.Warn("notification prune failed", zap.Error(err))
				return err
			}
			if rows > 0 {
				cronLogger.Info("pruned read notifications", zap.Int64("rows", rows))
			}
			return nil
		},
	})
}
