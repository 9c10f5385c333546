package centermetrics

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RunnerParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Collector *Collector
	Pusher    Pusher `optional:"true"`
}

// Runner bundles refresh-then-push for the scheduler. With no pusher
// configured it reports disabled and does nothing.
type Runner struct {
	db        *gorm.DB
	log       *zap.Logger
	collector *Collector
	pusher    Pusher
}

func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		db:        p.DB,
		log:       p.Log.Named("centermetrics"),
		collector: p.Collector,
		pusher:    p.Pusher,
	}
}

func (r *Runner) Enabled() bool {
	return r != nil && r.pusher != nil
}

// PushOnce refreshes the aggregate gauges and ships the snapshot.
func (r *Runner) PushOnce(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	if err := r.collector.Refresh(ctx, r.db); err != nil {
		return err
	}
	return r.pusher.Push(ctx, r.collector.Registry())
}

// SetScanResults records what the threshold scan saw on the gauge set.
func (r *Runner) SetScanResults(active, overAllocated int) {
	if r == nil || r.collector == nil {
		return
	}
	r.collector.SetScanResults(active, overAllocated)
}
