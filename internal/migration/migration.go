// Package migration creates the accounting schema on startup so a fresh
// install is usable out of the box. Postgres goes through versioned
// golang-migrate files; other dialects (sqlite for local bring-up) fall
// back to gorm AutoMigrate over the domain models.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	adjustmentdomain "github.com/summitgrid/corebank/internal/adjustment/domain"
	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the gorm models for dialects the
// versioned migrations do not cover.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&registrydomain.Project{},
		&registrydomain.Resource{},
		&registrydomain.Account{},
		&allocationdomain.Allocation{},
		&ledgerdomain.ComputeDailyCharge{},
		&ledgerdomain.InteractiveDailyCharge{},
		&ledgerdomain.DiskDailyCharge{},
		&ledgerdomain.ArchiveDailyCharge{},
		&adjustmentdomain.Adjustment{},
		&alertdomain.AllocationAlert{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// job_runs has no gorm model; the scheduler claims windows with raw
	// SQL only.
	return conn.Exec(
		`CREATE TABLE IF NOT EXISTS job_runs (
			id BIGINT PRIMARY KEY,
			job TEXT NOT NULL,
			window_start DATETIME NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			processed_count BIGINT NOT NULL DEFAULT 0,
			error_count BIGINT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (job, window_start)
		)`,
	).Error
}
