// Package scheduler runs the periodic background jobs: the allocation
// threshold scan that persists percent-used crossings, and the site
// metrics push that reports accounting gauges to the center. Replicas
// coordinate through (job, window) claims in the job_runs table.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
	balancedomain "github.com/summitgrid/corebank/internal/balance/domain"
	"github.com/summitgrid/corebank/internal/cache"
	"github.com/summitgrid/corebank/internal/centermetrics"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/dates"
	obsmetrics "github.com/summitgrid/corebank/internal/observability/metrics"
	"github.com/summitgrid/corebank/internal/ratelimit"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"github.com/summitgrid/corebank/internal/scheduler/guard"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	jobThresholdScan   = "threshold_scan"
	jobSiteMetricsPush = "site_metrics_push"

	lockSiteMetricsPush = "site_metrics_push"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config Config `optional:"true"`

	BalanceSvc balancedomain.Service
	AlertSvc   alertdomain.Service
	Registry   registrydomain.Repository
	Thresholds *config.ThresholdHolder

	Resolver cache.AccountResolverCache `optional:"true"`
	Metrics  *centermetrics.Runner      `optional:"true"`
	Limiter  *ratelimit.Limiter         `optional:"true"`
}

type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	balanceSvc balancedomain.Service
	alertSvc   alertdomain.Service
	registry   registrydomain.Repository
	thresholds *config.ThresholdHolder
	resolver   cache.AccountResolverCache
	metrics    *centermetrics.Runner
	limiter    *ratelimit.Limiter
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.BalanceSvc == nil || p.AlertSvc == nil || p.Registry == nil || p.Thresholds == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        cfg,
		genID:      p.GenID,
		clock:      p.Clock,
		balanceSvc: p.BalanceSvc,
		alertSvc:   p.AlertSvc,
		registry:   p.Registry,
		thresholds: p.Thresholds,
		resolver:   p.Resolver,
		metrics:    p.Metrics,
		limiter:    p.Limiter,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	windowStart := start.UTC().Truncate(s.cfg.RunInterval)
	if owner {
		claimed, err := s.beginJobRun(ctx, run, windowStart)
		if err != nil {
			return fmt.Errorf("%s: claim window: %w", name, err)
		}
		if !claimed {
			s.logger(ctx).Debug("scheduler.job.window_taken",
				zap.String("job", name),
				zap.Time("window_start", windowStart),
			)
			return nil
		}
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
		s.finishJobRun(context.WithoutCancel(ctx), run, windowStart, err)
	}
	if err == nil {
		return nil
	}

	// A deadline mid-batch is a soft stop: the next window resumes from
	// where the keyset left off.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{jobThresholdScan, s.isJobEnabled(jobThresholdScan), func(ctx context.Context) error {
			return s.runJob(ctx, jobThresholdScan, s.cfg.BatchSize, s.cfg.JobTimeout, s.ThresholdScanJob)
		}},
		{jobSiteMetricsPush, s.isJobEnabled(jobSiteMetricsPush) && s.metrics.Enabled(), func(ctx context.Context) error {
			return s.runJob(ctx, jobSiteMetricsPush, 1, s.cfg.JobTimeout, s.SiteMetricsPushJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty EnabledJobs list means every job runs (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ThresholdScanJob walks allocations whose validity window covers today,
// computes each one's balance, and records threshold crossings once per
// (allocation, threshold). Failures on one allocation do not stop the
// scan.
func (s *Scheduler) ThresholdScanJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobThresholdScan, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	now := s.clock.Now()
	today := dates.Day(now)
	thresholds := s.thresholds.Get()
	schedMetrics := obsmetrics.Scheduler()

	var jobErr error
	var lastID snowflake.ID
	var active, overAllocated int
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(jobErr, err)
		}
		allocations, err := s.fetchAllocationsForScan(ctx, today, lastID, s.cfg.BatchSize)
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.scan.fetch.failed", jobThresholdScan, 0, err)
			return errors.Join(jobErr, err)
		}
		if len(allocations) == 0 {
			break
		}
		for _, allocation := range allocations {
			lastID = allocation.ID
			active++
			over, err := s.scanAllocation(ctx, now, thresholds, allocation)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(ctx, run, "scheduler.allocation.scan.failed", jobThresholdScan, allocation.AccountID, err,
					zap.String("allocation_id", allocation.ID.String()),
				)
				continue
			}
			if over {
				overAllocated++
			}
			run.AddProcessed(1)
		}
		schedMetrics.AddBatchProcessed(jobThresholdScan, "allocations", len(allocations))
		if len(allocations) < s.cfg.BatchSize {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.SetScanResults(active, overAllocated)
	}
	return jobErr
}

// scanAllocation evaluates one allocation against the configured trip
// points. It reports whether the allocation is over its grant.
func (s *Scheduler) scanAllocation(ctx context.Context, now time.Time, thresholds config.ThresholdConfig, allocation WorkAllocation) (bool, error) {
	balance, err := s.balanceSvc.ComputeBalance(ctx, balancedomain.BalanceQuery{
		AllocationID: allocation.ID.String(),
		AsOf:         now,
	})
	if err != nil {
		return false, fmt.Errorf("allocation %s: %w", allocation.ID, err)
	}

	category, err := s.accountCategory(ctx, allocation.AccountID)
	if err != nil {
		return false, fmt.Errorf("account %s: %w", allocation.AccountID, err)
	}

	warnPercent := thresholds.WarnPercentFor(string(category))
	for _, crossing := range guard.Crossings(balance.PercentUsed, warnPercent, thresholds.Balance.CriticalPercent) {
		created, err := s.alertSvc.RecordCrossing(ctx, alertdomain.RecordCrossingRequest{
			AllocationID:     allocation.ID,
			AccountID:        allocation.AccountID,
			ThresholdPercent: crossing.ThresholdPercent,
			PercentUsed:      balance.PercentUsed,
			State:            crossing.State,
			At:               now,
		})
		if err != nil {
			return false, fmt.Errorf("record crossing at %v%%: %w", crossing.ThresholdPercent, err)
		}
		if created {
			from := "ok"
			if crossing.State == alertdomain.StateCritical {
				from = string(alertdomain.StateWarning)
			}
			obsmetrics.Scheduler().IncAlertTransition(from, string(crossing.State))
		}
	}

	return balance.Remaining < 0, nil
}

// accountCategory resolves the account's resource category, preferring
// the resolver cache when one is wired. Scans visit many allocations on
// the same account, so the hit rate is high.
func (s *Scheduler) accountCategory(ctx context.Context, accountID snowflake.ID) (registrydomain.ResourceCategory, error) {
	if s.resolver != nil {
		if detail, ok := s.resolver.GetAccountDetail(accountID); ok && detail != nil {
			return detail.ResourceCategory, nil
		}
	}
	detail, err := s.registry.FindAccountDetail(ctx, s.db, accountID)
	if err != nil {
		return "", err
	}
	if detail == nil {
		return "", registrydomain.ErrAccountNotFound
	}
	if s.resolver != nil {
		s.resolver.SetAccountDetail(accountID, detail)
	}
	return detail.ResourceCategory, nil
}

// SiteMetricsPushJob refreshes the accounting gauges and pushes them to
// the center. A Redis lock keeps overlapping pushes from concurrent
// replicas apart even when their run windows drift.
func (s *Scheduler) SiteMetricsPushJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobSiteMetricsPush, 1)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	if !s.metrics.Enabled() {
		return nil
	}

	token, ok, err := s.limiter.TryLock(ctx, lockSiteMetricsPush, s.cfg.RunInterval)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.metrics.lock.failed", jobSiteMetricsPush, 0, err)
		return err
	}
	if !ok {
		s.logger(ctx).Debug("scheduler.metrics.push.held", zap.String("job", jobSiteMetricsPush))
		return nil
	}
	defer func() {
		if err := s.limiter.Release(context.WithoutCancel(ctx), lockSiteMetricsPush, token); err != nil {
			s.logger(ctx).Warn("scheduler.metrics.lock.release_failed", zap.Error(err))
		}
	}()

	if err := s.metrics.PushOnce(ctx); err != nil {
		s.logSchedulerError(ctx, run, "scheduler.metrics.push.failed", jobSiteMetricsPush, 0, err)
		return err
	}
	run.AddProcessed(1)
	return nil
}
