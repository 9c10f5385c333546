package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	adjustmentrepo "github.com/summitgrid/corebank/internal/adjustment/repository"
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/dates"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	ledgerrepo "github.com/summitgrid/corebank/internal/ledger/repository"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	registryrepo "github.com/summitgrid/corebank/internal/registry/repository"
	"github.com/summitgrid/corebank/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUsageService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	prepareUsageSchema(t, db)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Registry:    registryrepo.Provide(),
		Ledger:      ledgerrepo.Provide(),
		Adjustments: adjustmentrepo.Provide(),
		Thresholds: config.NewStaticThresholdHolder(config.ThresholdConfig{
			Balance: config.BalanceThresholds{WarnPercent: 75, CriticalPercent: 90},
			Trend:   config.TrendDefaults{DefaultWindowDays: 30, MaxWindowDays: 90},
		}),
	})
	return svc, db, node
}

func prepareUsageSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE projects (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			principal_name TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE resources (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			unit TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE accounts (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			project_id BIGINT NOT NULL,
			resource_id BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE compute_daily_charges (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			activity_date DATETIME NOT NULL,
			charge DOUBLE PRECISION NOT NULL,
			core_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			job_count BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (account_id, activity_date)
		)`,
		`CREATE TABLE interactive_daily_charges (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			activity_date DATETIME NOT NULL,
			charge DOUBLE PRECISION NOT NULL,
			core_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			session_count BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (account_id, activity_date)
		)`,
		`CREATE TABLE disk_daily_charges (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			activity_date DATETIME NOT NULL,
			charge DOUBLE PRECISION NOT NULL,
			bytes_stored BIGINT NOT NULL DEFAULT 0,
			file_count BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (account_id, activity_date)
		)`,
		`CREATE TABLE archive_daily_charges (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			activity_date DATETIME NOT NULL,
			charge DOUBLE PRECISION NOT NULL,
			bytes_stored BIGINT NOT NULL DEFAULT 0,
			file_count BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (account_id, activity_date)
		)`,
		`CREATE TABLE adjustments (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			adjustment_date DATETIME NOT NULL,
			reason TEXT NOT NULL,
			metadata JSON,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error, "prepare schema")
	}
}

func seedUsageAccount(t *testing.T, db *gorm.DB, node *snowflake.Node, category string) snowflake.ID {
	t.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	projectID := node.Generate()
	resourceID := node.Generate()
	accountID := node.Generate()

	require.NoError(t, db.Exec(
		`INSERT INTO projects (id, code, title, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		projectID, fmt.Sprintf("proj-%d", projectID), "Test Project", true, now, now,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO resources (id, code, name, category, unit, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		resourceID, fmt.Sprintf("res-%d", resourceID), "Test Resource", category, "core-hours", true, now, now,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO accounts (id, code, project_id, resource_id, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, fmt.Sprintf("acct-%d", accountID), projectID, resourceID, true, now, now,
	).Error)
	return accountID
}

func insertCharge(t *testing.T, db *gorm.DB, node *snowflake.Node, table string, accountID snowflake.ID, day string, charge float64) {
	t.Helper()
	date, err := dates.Parse(day)
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		fmt.Sprintf(`INSERT INTO %s (id, account_id, activity_date, charge, created_at) VALUES (?, ?, ?, ?, ?)`, table),
		node.Generate(), accountID, date, charge, date,
	).Error)
}

func insertAdjustment(t *testing.T, db *gorm.DB, node *snowflake.Node, accountID snowflake.ID, day string, amount float64) {
	t.Helper()
	date, err := dates.Parse(day)
	require.NoError(t, err)
	require.NoError(t, db.Exec(
		`INSERT INTO adjustments (id, account_id, amount, adjustment_date, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		node.Generate(), accountID, amount, date, "test correction", date,
	).Error)
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := dates.Parse(value)
	require.NoError(t, err)
	return d
}

func TestComputeUsageZeroRowsStillCarriesEveryCategory(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	breakdown, err := svc.ComputeUsage(context.Background(), domain.UsageQuery{
		AccountID:          accountID.String(),
		StartDate:          day(t, "2024-03-01"),
		EndDate:            day(t, "2024-03-31"),
		IncludeAdjustments: true,
	})
	require.NoError(t, err)
	assert.Zero(t, breakdown.TotalCharges)
	require.Contains(t, breakdown.ChargesByCategory, ledgerdomain.SourceCompute,
		"the compute key must be present even with no rows")
	assert.Zero(t, breakdown.ChargesByCategory[ledgerdomain.SourceCompute])
}

func TestComputeUsageInteractiveUnionsComputeLedger(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "interactive")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-05", 30)
	insertCharge(t, db, node, "interactive_daily_charges", accountID, "2024-03-05", 12)
	// Same account, different ledger: must stay out of the union.
	insertCharge(t, db, node, "disk_daily_charges", accountID, "2024-03-05", 999)

	breakdown, err := svc.ComputeUsage(context.Background(), domain.UsageQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-31"),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(42), breakdown.TotalCharges)
	assert.Equal(t, float64(30), breakdown.ChargesByCategory[ledgerdomain.SourceCompute])
	assert.Equal(t, float64(12), breakdown.ChargesByCategory[ledgerdomain.SourceInteractive])
	assert.NotContains(t, breakdown.ChargesByCategory, ledgerdomain.SourceDisk,
		"disk ledger must not leak into an interactive breakdown")
}

func TestComputeUsageWindowBoundariesInclusive(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-02-29", 1)
	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-01", 20)
	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-31", 22)
	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-04-01", 1)

	breakdown, err := svc.ComputeUsage(context.Background(), domain.UsageQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-31"),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(42), breakdown.TotalCharges, "both boundary days and nothing else")
}

func TestComputeUsageAdjustmentsSignedAndOptional(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-10", 100)
	insertAdjustment(t, db, node, accountID, "2024-03-12", -25)
	insertAdjustment(t, db, node, accountID, "2024-03-20", 5)
	insertAdjustment(t, db, node, accountID, "2024-04-02", -999) // outside window

	ctx := context.Background()
	query := domain.UsageQuery{
		AccountID:          accountID.String(),
		StartDate:          day(t, "2024-03-01"),
		EndDate:            day(t, "2024-03-31"),
		IncludeAdjustments: true,
	}

	with, err := svc.ComputeUsage(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, float64(-20), with.AdjustmentsTotal, "adjustments keep their sign")
	assert.Equal(t, float64(80), with.TotalCharges)
	assert.True(t, with.IncludesAdjustments)

	query.IncludeAdjustments = false
	without, err := svc.ComputeUsage(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, float64(100), without.TotalCharges)
	assert.Zero(t, without.AdjustmentsTotal)
}

func TestComputeUsageValidation(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")
	ctx := context.Background()

	_, err := svc.ComputeUsage(ctx, domain.UsageQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-31"),
		EndDate:   day(t, "2024-03-01"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange, "inverted window")

	// A single-day window is legal.
	_, err = svc.ComputeUsage(ctx, domain.UsageQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-15"),
		EndDate:   day(t, "2024-03-15"),
	})
	assert.NoError(t, err)

	_, err = svc.ComputeUsage(ctx, domain.UsageQuery{
		AccountID: "not-a-number",
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-31"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.ComputeUsage(ctx, domain.UsageQuery{
		AccountID: node.Generate().String(),
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-31"),
	})
	assert.ErrorIs(t, err, registrydomain.ErrAccountNotFound)
}

func TestComputeUsageUnsupportedCategory(t *testing.T) {
	svc, db, node := setupUsageService(t)
	// Seeded raw, so the registry's create-time validation never saw it.
	accountID := seedUsageAccount(t, db, node, "quantum")

	_, err := svc.ComputeUsage(context.Background(), domain.UsageQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-31"),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrUnsupportedResourceCategory)

	// An explicit override gets the same verdict.
	_, err = svc.ComputeUsage(context.Background(), domain.UsageQuery{
		AccountID: accountID.String(),
		Category:  "tape",
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-31"),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrUnsupportedResourceCategory)
}

func TestComputeUsageIsIdempotent(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-08", 17.5)
	insertAdjustment(t, db, node, accountID, "2024-03-09", -2.5)

	query := domain.UsageQuery{
		AccountID:          accountID.String(),
		StartDate:          day(t, "2024-03-01"),
		EndDate:            day(t, "2024-03-31"),
		IncludeAdjustments: true,
	}
	first, err := svc.ComputeUsage(context.Background(), query)
	require.NoError(t, err)
	second, err := svc.ComputeUsage(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical queries must not diverge")
}

func TestDailyTrendZeroFillsEveryDay(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-03", 9)
	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-07", 4)

	series, err := svc.DailyTrend(context.Background(), domain.TrendQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-10"),
	})
	require.NoError(t, err)
	require.Len(t, series, 10, "one entry per day")
	for i, entry := range series {
		want := day(t, "2024-03-01").AddDate(0, 0, i)
		assert.True(t, dates.SameDay(entry.Date, want), "entry %d: expected %v, got %v", i, want, entry.Date)
		assert.Contains(t, entry.ChargesByCategory, ledgerdomain.SourceCompute,
			"entry %d: compute key missing on a zero day", i)
	}
	assert.Equal(t, float64(9), series[2].TotalCharges)
	assert.Equal(t, float64(4), series[6].TotalCharges)
	assert.Zero(t, series[0].TotalCharges)
	assert.Zero(t, series[9].TotalCharges)
}

func TestDailyTrendMergesUnionedLedgersPerDay(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "interactive")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-02", 5)
	insertCharge(t, db, node, "interactive_daily_charges", accountID, "2024-03-02", 7)

	series, err := svc.DailyTrend(context.Background(), domain.TrendQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-01"),
		EndDate:   day(t, "2024-03-03"),
	})
	require.NoError(t, err)
	require.Len(t, series, 3)
	mid := series[1]
	assert.Equal(t, float64(5), mid.ChargesByCategory[ledgerdomain.SourceCompute])
	assert.Equal(t, float64(7), mid.ChargesByCategory[ledgerdomain.SourceInteractive])
	assert.Equal(t, float64(12), mid.TotalCharges)
}

func TestDailyTrendExcludesAdjustments(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-05", 10)
	insertAdjustment(t, db, node, accountID, "2024-03-05", -8)

	series, err := svc.DailyTrend(context.Background(), domain.TrendQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-03-05"),
		EndDate:   day(t, "2024-03-05"),
	})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, float64(10), series[0].TotalCharges, "trend must ignore adjustments")
}

func TestDailyTrendRejectsOversizedWindow(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "compute")

	_, err := svc.DailyTrend(context.Background(), domain.TrendQuery{
		AccountID: accountID.String(),
		StartDate: day(t, "2024-01-01"),
		EndDate:   day(t, "2024-12-31"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange, "window beyond the cap")
}

func TestTrendTotalsMatchUsageWithoutAdjustments(t *testing.T) {
	svc, db, node := setupUsageService(t)
	accountID := seedUsageAccount(t, db, node, "interactive")

	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-01", 3)
	insertCharge(t, db, node, "compute_daily_charges", accountID, "2024-03-04", 6)
	insertCharge(t, db, node, "interactive_daily_charges", accountID, "2024-03-04", 1.5)
	insertAdjustment(t, db, node, accountID, "2024-03-02", 100)

	start, end := day(t, "2024-03-01"), day(t, "2024-03-07")
	breakdown, err := svc.ComputeUsage(context.Background(), domain.UsageQuery{
		AccountID: accountID.String(),
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	series, err := svc.DailyTrend(context.Background(), domain.TrendQuery{
		AccountID: accountID.String(),
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	var sum float64
	for _, entry := range series {
		sum += entry.TotalCharges
	}
	assert.InDelta(t, breakdown.TotalCharges, sum, 0.0001, "trend must sum to the usage total")
}
