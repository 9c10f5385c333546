package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "corebank",
		Environment: "test",
	})

	metrics.AddBatchProcessed("threshold_scan", "allocations", 3)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("threshold_scan", "allocations"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}

func TestIncAlertTransitionUsesPrebuiltCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "corebank",
		Environment: "test",
	})

	metrics.IncAlertTransition(AlertStateNone, AlertStateWarning)
	metrics.IncAlertTransition(AlertStateNone, AlertStateWarning)
	metrics.IncAlertTransition(AlertStateWarning, AlertStateCritical)

	got := testutil.ToFloat64(metrics.alertTransitions.WithLabelValues(AlertStateNone, AlertStateWarning))
	if got != 2 {
		t.Fatalf("expected 2 warning transitions, got %v", got)
	}
	got = testutil.ToFloat64(metrics.alertTransitions.WithLabelValues(AlertStateWarning, AlertStateCritical))
	if got != 1 {
		t.Fatalf("expected 1 critical transition, got %v", got)
	}
}
