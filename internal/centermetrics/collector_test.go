package centermetrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/summitgrid/corebank/internal/clock"
	"gorm.io/gorm"
)

func setupCollectorDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	stmts := []string{
		`CREATE TABLE projects (id BIGINT PRIMARY KEY, code TEXT, title TEXT, active BOOLEAN, created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE accounts (id BIGINT PRIMARY KEY, code TEXT, project_id BIGINT, resource_id BIGINT, active BOOLEAN, created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE compute_daily_charges (id BIGINT PRIMARY KEY, account_id BIGINT, activity_date DATETIME, charge DOUBLE PRECISION, created_at DATETIME)`,
		`CREATE TABLE interactive_daily_charges (id BIGINT PRIMARY KEY, account_id BIGINT, activity_date DATETIME, charge DOUBLE PRECISION, created_at DATETIME)`,
		`CREATE TABLE disk_daily_charges (id BIGINT PRIMARY KEY, account_id BIGINT, activity_date DATETIME, charge DOUBLE PRECISION, created_at DATETIME)`,
		`CREATE TABLE archive_daily_charges (id BIGINT PRIMARY KEY, account_id BIGINT, activity_date DATETIME, charge DOUBLE PRECISION, created_at DATETIME)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}
	return db
}

func gaugeValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matchLabels(metric, labels) {
				return metric.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(labels) == 0 {
		return true
	}
	got := map[string]string{}
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for key, want := range labels {
		if got[key] != want {
			return false
		}
	}
	return true
}

func TestCollectorRefreshAggregates(t *testing.T) {
	db := setupCollectorDB(t)
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	if err := db.Exec(`INSERT INTO projects (id, active) VALUES (1, true), (2, true), (3, false)`).Error; err != nil {
		t.Fatalf("seed projects: %v", err)
	}
	if err := db.Exec(`INSERT INTO accounts (id, active) VALUES (1, true), (2, false)`).Error; err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	if err := db.Exec(`INSERT INTO compute_daily_charges (id, account_id, activity_date, charge) VALUES (1, 1, ?, 40), (2, 1, ?, 99)`, today, yesterday).Error; err != nil {
		t.Fatalf("seed charges: %v", err)
	}

	registry := prometheus.NewRegistry()
	collector := NewCollector(registry, clock.NewFakeClock(now), "site-9", "Summit Ridge")
	if err := collector.Refresh(context.Background(), db); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	collector.SetScanResults(12, 3)

	if got := gaugeValue(t, registry, "corebank_site_projects", nil); got != 2 {
		t.Fatalf("expected 2 active projects, got %v", got)
	}
	if got := gaugeValue(t, registry, "corebank_site_accounts", nil); got != 1 {
		t.Fatalf("expected 1 active account, got %v", got)
	}
	if got := gaugeValue(t, registry, "corebank_site_daily_charges", map[string]string{"category": "compute"}); got != 40 {
		t.Fatalf("expected today's compute charges 40, got %v", got)
	}
	if got := gaugeValue(t, registry, "corebank_site_daily_charges", map[string]string{"category": "disk"}); got != 0 {
		t.Fatalf("expected zero disk charges, got %v", got)
	}
	if got := gaugeValue(t, registry, "corebank_site_active_allocations", nil); got != 12 {
		t.Fatalf("expected 12 active allocations, got %v", got)
	}
	if got := gaugeValue(t, registry, "corebank_site_overallocated_allocations", nil); got != 3 {
		t.Fatalf("expected 3 overallocated, got %v", got)
	}
	if got := gaugeValue(t, registry, "corebank_site_info", map[string]string{"site_id": "site-9"}); got != 1 {
		t.Fatalf("expected site info gauge 1, got %v", got)
	}
}

func TestBuildRemoteWriteSeriesSkipsUnsupportedTypes(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "cb_test_gauge"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cb_test_histogram"})
	registry.MustRegister(gauge, histogram)
	gauge.Set(7)
	histogram.Observe(1)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	series := buildRemoteWriteSeries(families, 1234)
	if len(series) != 1 {
		t.Fatalf("expected only the gauge series, got %d", len(series))
	}
	if series[0].Labels[0].Name != "__name__" || series[0].Labels[0].Value != "cb_test_gauge" {
		t.Fatalf("unexpected labels %+v", series[0].Labels)
	}
	if series[0].Samples[0].Value != 7 || series[0].Samples[0].Timestamp != 1234 {
		t.Fatalf("unexpected sample %+v", series[0].Samples[0])
	}
}

func TestBuildOTLPMetricsConvertsCountersAndGauges(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "cb_test_counter"})
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "cb_test_labeled"}, []string{"category"})
	registry.MustRegister(counter, gauge)
	counter.Add(3)
	gauge.WithLabelValues("compute").Set(11)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	metrics := buildOTLPMetrics(families, 42)
	if len(metrics) != 2 {
		t.Fatalf("expected 2 otlp metrics, got %d", len(metrics))
	}
	for _, metric := range metrics {
		switch metric.GetName() {
		case "cb_test_counter":
			sum := metric.GetSum()
			if sum == nil || !sum.GetIsMonotonic() {
				t.Fatalf("counter must convert to a monotonic sum, got %+v", metric)
			}
			if sum.GetDataPoints()[0].GetAsDouble() != 3 {
				t.Fatalf("unexpected counter value %+v", sum.GetDataPoints())
			}
		case "cb_test_labeled":
			points := metric.GetGauge().GetDataPoints()
			if len(points) != 1 || points[0].GetAsDouble() != 11 {
				t.Fatalf("unexpected gauge points %+v", points)
			}
			if points[0].GetAttributes()[0].GetKey() != "category" {
				t.Fatalf("expected category attribute, got %+v", points[0].GetAttributes())
			}
		default:
			t.Fatalf("unexpected metric %s", metric.GetName())
		}
	}
}
