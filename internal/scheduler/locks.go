package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/summitgrid/corebank/internal/observability/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkAllocation is the slice of an allocation row the threshold scan
// needs. Balances are computed through the balance service, not from
// these fields.
type WorkAllocation struct {
	ID        snowflake.ID
	AccountID snowflake.ID
	Amount    float64
	StartDate time.Time
	EndDate   *time.Time
}

// fetchAllocationsForScan claims the next id-ordered batch of allocations
// whose validity window covers today. Rows locked by another replica are
// skipped rather than waited on.
func (s *Scheduler) fetchAllocationsForScan(ctx context.Context, today time.Time, afterID snowflake.ID, limit int) ([]WorkAllocation, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var allocations []WorkAllocation
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	err := s.db.WithContext(claimCtx).Transaction(func(tx *gorm.DB) error {
		return tx.Raw(
			`SELECT id, account_id, amount, start_date, end_date
			 FROM allocations
			 WHERE id > ?
			   AND start_date <= ?
			   AND (end_date IS NULL OR end_date >= ?)
			 ORDER BY id
			 FOR UPDATE SKIP LOCKED
			 LIMIT ?`,
			afterID,
			today,
			today,
			limit,
		).Scan(&allocations).Error
	})
	schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceAllocationsForScan, time.Since(lockStart))
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

// beginJobRun claims the (job, window) slot in job_runs. Exactly one
// replica wins a given window; the rest skip the run.
func (s *Scheduler) beginJobRun(ctx context.Context, run *jobRun, windowStart time.Time) (bool, error) {
	now := s.clock.Now().UTC()
	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO job_runs (id, job, window_start, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (job, window_start) DO NOTHING`,
		s.genID.Generate(),
		run.job,
		windowStart,
		now,
		now,
		now,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// finishJobRun records the outcome on the claimed window row.
func (s *Scheduler) finishJobRun(ctx context.Context, run *jobRun, windowStart time.Time, jobErr error) {
	now := s.clock.Now().UTC()
	var lastError *string
	if jobErr != nil {
		message := jobErr.Error()
		lastError = &message
	}
	if err := s.db.WithContext(ctx).Exec(
		`UPDATE job_runs
		 SET finished_at = ?,
		     processed_count = ?,
		     error_count = ?,
		     last_error = ?,
		     updated_at = ?
		 WHERE job = ? AND window_start = ?`,
		now,
		run.processedCount,
		run.errorCount,
		lastError,
		now,
		run.job,
		windowStart,
	).Error; err != nil {
		s.log.Warn("failed to record job run outcome",
			zap.String("job", run.job),
			zap.Error(err),
		)
	}
}
