// internal/cleanup/cleanup.go
package cleanup

import (
	"context"
	"time"

	"kitchenops/internal/data"
	"kitchenops/internal/logger"
)

const (
	cleanupHour       = 2  // 2 AM
	maxDeletionPerRun = 25 // Maximum prep lists to delete per run
)

// Store is the slice of *data.Store the routine needs.
type Store interface {
	PrepListsBefore(ctx context.Context, date string, limit int) ([]data.PrepList, error)
	WithTx(ctx context.Context, fn func(q *data.Queries) error) error
}

// Publisher is told about every pruned date. *realtime.Broker implements it.
type Publisher interface {
	Publish(topic string)
}

// StartCleanupRoutine starts the daily pruning job. It does nothing when
// retentionDays is zero and stops when ctx is cancelled.
func StartCleanupRoutine(ctx context.Context, store Store, pub Publisher, retentionDays int) {
	if retentionDays <= 0 {
		logger.LogInfo("Prep list retention disabled - cleanup routine not started")
		return
	}

	go func() {
		logger.LogInfo("Cleanup routine started - will run daily at %d:00 AM, keeping %d day(s)", cleanupHour, retentionDays)

		for {
			now := time.Now()
			next := nextRun(now)
			sleepDuration := next.Sub(now)
			logger.LogInfo("Next cleanup scheduled for %v (in %v)", next.Format("2006-01-02 15:04:05"), sleepDuration)

			timer := time.NewTimer(sleepDuration)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.LogInfo("Cleanup routine stopped")
				return
			case <-timer.C:
			}

			if _, err := runCleanup(ctx, store, pub, retentionDays, time.Now()); err != nil {
				logger.LogError("Prep list cleanup failed: %v", err)
			}
		}
	}()
}

// nextRun returns the next 2 AM strictly after now.
func nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), cleanupHour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// cutoffDate is the oldest prep date that is kept.
func cutoffDate(now time.Time, retentionDays int) string {
	return now.AddDate(0, 0, -retentionDays).Format(time.DateOnly)
}

// runCleanup deletes up to maxDeletionPerRun prep lists dated before the
// cutoff, each with its tasks in one transaction. Sales history is never touched.
func runCleanup(ctx context.Context, store Store, pub Publisher, retentionDays int, now time.Time) (int, error) {
	cutoff := cutoffDate(now, retentionDays)
	logger.LogInfo("Starting daily cleanup of prep lists before %s", cutoff)

	lists, err := store.PrepListsBefore(ctx, cutoff, maxDeletionPerRun)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, list := range lists {
		err := store.WithTx(ctx, func(q *data.Queries) error {
			_, err := q.DeletePrepList(ctx, list.ID)
			return err
		})
		if err != nil {
			logger.LogError("Failed to delete prep list %s (%s): %v", list.ID, list.PrepDate, err)
			continue
		}
		cleaned++
		if pub != nil {
			pub.Publish(list.PrepDate)
		}
	}

	if cleaned == 0 {
		logger.LogInfo("Cleanup completed - no expired prep lists found")
	} else {
		logger.LogInfo("Cleanup completed - total %d expired prep lists removed", cleaned)
	}
	return cleaned, nil
}
