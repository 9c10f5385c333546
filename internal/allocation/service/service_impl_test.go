package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/internal/allocation/repository"
	"github.com/summitgrid/corebank/internal/clock"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	registryrepo "github.com/summitgrid/corebank/internal/registry/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAllocationService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
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
	prepareAllocationSchema(t, db)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		Registry: registryrepo.Provide(),
	})
	return svc, db, node
}

func prepareAllocationSchema(t *testing.T, db *gorm.DB) {
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
		`CREATE TABLE allocations (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			parent_id BIGINT,
			amount DOUBLE PRECISION NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME,
			note TEXT,
			metadata JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("prepare schema: %v", err)
		}
	}
}

func seedAccount(t *testing.T, db *gorm.DB, node *snowflake.Node, active bool) snowflake.ID {
	t.Helper()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	projectID := node.Generate()
	resourceID := node.Generate()
	accountID := node.Generate()

	if err := db.Exec(
		`INSERT INTO projects (id, code, title, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		projectID, fmt.Sprintf("proj-%d", projectID), "Test Project", true, now, now,
	).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO resources (id, code, name, category, unit, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		resourceID, fmt.Sprintf("res-%d", resourceID), "Cluster", "compute", "core-hours", true, now, now,
	).Error; err != nil {
		t.Fatalf("seed resource: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO accounts (id, code, project_id, resource_id, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, fmt.Sprintf("acct-%d", accountID), projectID, resourceID, active, now, now,
	).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return accountID
}

func TestCreateAllocationValidates(t *testing.T) {
	svc, db, node := setupAllocationService(t)
	accountID := seedAccount(t, db, node, true)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	if _, err := svc.Create(ctx, domain.CreateAllocationRequest{
		AccountID: accountID.String(),
		Amount:    0,
		StartDate: start,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected invalid_amount, got %v", err)
	}

	if _, err := svc.Create(ctx, domain.CreateAllocationRequest{
		AccountID: accountID.String(),
		Amount:    1000,
		StartDate: end,
		EndDate:   &start,
	}); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected invalid_window, got %v", err)
	}

	if _, err := svc.Create(ctx, domain.CreateAllocationRequest{
		AccountID: node.Generate().String(),
		Amount:    1000,
		StartDate: start,
	}); !errors.Is(err, registrydomain.ErrAccountNotFound) {
		t.Fatalf("expected account_not_found, got %v", err)
	}

	allocation, err := svc.Create(ctx, domain.CreateAllocationRequest{
		AccountID: accountID.String(),
		Amount:    500000,
		StartDate: start,
		EndDate:   &end,
		Note:      "FY24 award",
	})
	if err != nil {
		t.Fatalf("create allocation: %v", err)
	}
	if allocation.Amount != 500000 {
		t.Fatalf("expected amount 500000, got %v", allocation.Amount)
	}
}

func TestCreateAllocationRejectsInactiveAccount(t *testing.T) {
	svc, db, node := setupAllocationService(t)
	accountID := seedAccount(t, db, node, false)

	_, err := svc.Create(context.Background(), domain.CreateAllocationRequest{
		AccountID: accountID.String(),
		Amount:    100,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, registrydomain.ErrAccountInactive) {
		t.Fatalf("expected account_inactive, got %v", err)
	}
}

func TestCreateAllocationRejectsMissingParent(t *testing.T) {
	svc, db, node := setupAllocationService(t)
	accountID := seedAccount(t, db, node, true)

	_, err := svc.Create(context.Background(), domain.CreateAllocationRequest{
		AccountID: accountID.String(),
		ParentID:  node.Generate().String(),
		Amount:    100,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrParentNotFound) {
		t.Fatalf("expected parent_not_found, got %v", err)
	}
}

func TestActiveAtWindowIsInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	allocation := domain.Allocation{StartDate: start, EndDate: &end}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"day before start", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), false},
		{"start day", start, true},
		{"mid window", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{"end day afternoon", time.Date(2024, 6, 30, 15, 30, 0, 0, time.UTC), true},
		{"day after end", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := allocation.ActiveAt(tc.at); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}

	openEnded := domain.Allocation{StartDate: start}
	if !openEnded.ActiveAt(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("open-ended allocation should stay active")
	}
}

func TestListActiveFiltersByDay(t *testing.T) {
	svc, db, node := setupAllocationService(t)
	accountID := seedAccount(t, db, node, true)
	ctx := context.Background()

	mk := func(start, end string) {
		t.Helper()
		s, err := time.Parse("2006-01-02", start)
		if err != nil {
			t.Fatalf("parse start: %v", err)
		}
		req := domain.CreateAllocationRequest{
			AccountID: accountID.String(),
			Amount:    1000,
			StartDate: s,
		}
		if end != "" {
			e, err := time.Parse("2006-01-02", end)
			if err != nil {
				t.Fatalf("parse end: %v", err)
			}
			req.EndDate = &e
		}
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("create allocation: %v", err)
		}
	}

	mk("2024-01-01", "2024-03-31") // expired by June
	mk("2024-06-01", "2024-06-30") // active mid June
	mk("2024-07-01", "")           // not started yet

	active, err := svc.ListActive(ctx, domain.ListActiveRequest{
		AccountID: accountID.String(),
		At:        time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active allocation, got %d", len(active))
	}
	if !active[0].StartDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected active allocation window start %v", active[0].StartDate)
	}
}
