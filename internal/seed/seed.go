// Package seed loads a small demo site (one project, the four resource
// categories, accounts, allocations and a month of ledger history) so a
// fresh install has data to query. Every write is idempotent; reseeding
// an existing database is a no-op.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/summitgrid/corebank/internal/adjustment/domain"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/internal/dates"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	demoProjectCode  = "astro"
	demoProjectTitle = "Astrophysics Survey"
	demoPrincipal    = "E. Okafor"

	demoHistoryDays = 30
)

// EnsureDemoData seeds the demo project and its ledger history.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	today := dates.Day(time.Now().UTC())

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := ensureProjectTx(ctx, tx, node)
		if err != nil {
			return err
		}

		resources := []registrydomain.Resource{
			{Code: "hpc-cluster", Name: "HPC Cluster", Category: registrydomain.CategoryCompute, Unit: "core-hours"},
			{Code: "login-pool", Name: "Interactive Login Pool", Category: registrydomain.CategoryInteractive, Unit: "core-hours"},
			{Code: "scratch-fs", Name: "Scratch Filesystem", Category: registrydomain.CategoryDisk, Unit: "gb-days"},
			{Code: "tape-archive", Name: "Tape Archive", Category: registrydomain.CategoryArchive, Unit: "gb-days"},
		}
		resourceIDs := make(map[string]snowflake.ID, len(resources))
		for _, res := range resources {
			id, err := ensureResourceTx(ctx, tx, node, res)
			if err != nil {
				return err
			}
			resourceIDs[res.Code] = id
		}

		compute, err := ensureAccountTx(ctx, tx, node, "astro-compute", project.ID, resourceIDs["hpc-cluster"])
		if err != nil {
			return err
		}
		interactive, err := ensureAccountTx(ctx, tx, node, "astro-login", project.ID, resourceIDs["login-pool"])
		if err != nil {
			return err
		}
		disk, err := ensureAccountTx(ctx, tx, node, "astro-scratch", project.ID, resourceIDs["scratch-fs"])
		if err != nil {
			return err
		}

		// Grants: a quarterly compute grant with a sub-allocation carved
		// out for the interactive pool, plus a flat storage grant.
		windowStart := today.AddDate(0, 0, -60)
		windowEnd := today.AddDate(0, 0, 30)
		grant, err := ensureAllocationTx(ctx, tx, node, compute, nil, 100000, windowStart, &windowEnd, "demo quarterly grant")
		if err != nil {
			return err
		}
		if _, err := ensureAllocationTx(ctx, tx, node, interactive, &grant, 20000, windowStart, &windowEnd, "demo interactive carve-out"); err != nil {
			return err
		}
		if _, err := ensureAllocationTx(ctx, tx, node, disk, nil, 5000, windowStart, &windowEnd, "demo storage grant"); err != nil {
			return err
		}

		if err := seedChargesTx(ctx, tx, node, compute, interactive, disk, today); err != nil {
			return err
		}

		return ensureAdjustmentTx(ctx, tx, node, compute, -2500,
			today.AddDate(0, 0, -10), "reimbursement for failed jobs")
	})
}

func ensureProjectTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (registrydomain.Project, error) {
	var project registrydomain.Project
	err := tx.WithContext(ctx).Where("code = ?", demoProjectCode).First(&project).Error
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return project, err
	}
	now := time.Now().UTC()
	project = registrydomain.Project{
		ID:            node.Generate(),
		Code:          demoProjectCode,
		Title:         demoProjectTitle,
		PrincipalName: demoPrincipal,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(&project).Error; err != nil {
		return project, err
	}
	return project, nil
}

func ensureResourceTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, want registrydomain.Resource) (snowflake.ID, error) {
	var resource registrydomain.Resource
	err := tx.WithContext(ctx).Where("code = ?", want.Code).First(&resource).Error
	if err == nil {
		return resource.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	now := time.Now().UTC()
	want.ID = node.Generate()
	want.Active = true
	want.CreatedAt = now
	want.UpdatedAt = now
	if err := tx.WithContext(ctx).Create(&want).Error; err != nil {
		return 0, err
	}
	return want.ID, nil
}

func ensureAccountTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, code string, projectID, resourceID snowflake.ID) (snowflake.ID, error) {
	var account registrydomain.Account
	err := tx.WithContext(ctx).Where("code = ?", code).First(&account).Error
	if err == nil {
		return account.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	now := time.Now().UTC()
	account = registrydomain.Account{
		ID:         node.Generate(),
		Code:       code,
		ProjectID:  projectID,
		ResourceID: resourceID,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		return 0, err
	}
	return account.ID, nil
}

func ensureAllocationTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, accountID snowflake.ID, parentID *snowflake.ID, amount float64, start time.Time, end *time.Time, note string) (snowflake.ID, error) {
	var allocation allocationdomain.Allocation
	err := tx.WithContext(ctx).Where("account_id = ? AND note = ?", accountID, note).First(&allocation).Error
	if err == nil {
		return allocation.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	now := time.Now().UTC()
	allocation = allocationdomain.Allocation{
		ID:        node.Generate(),
		AccountID: accountID,
		ParentID:  parentID,
		Amount:    amount,
		StartDate: start,
		EndDate:   end,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&allocation).Error; err != nil {
		return 0, err
	}
	return allocation.ID, nil
}

// seedChargesTx writes a month of daily ledger rows ending yesterday.
// Values follow a fixed weekly pattern so demo balances are stable.
func seedChargesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, compute, interactive, disk snowflake.ID, today time.Time) error {
	skipExisting := clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "activity_date"}},
		DoNothing: true,
	}

	for i := demoHistoryDays; i >= 1; i-- {
		day := today.AddDate(0, 0, -i)
		weekday := float64(i % 7)

		rows := []interface{}{
			&ledgerdomain.ComputeDailyCharge{
				ID:           node.Generate(),
				AccountID:    compute,
				ActivityDate: day,
				Charge:       1200 + weekday*85,
				CoreHours:    1200 + weekday*85,
				JobCount:     40 + int64(weekday)*3,
				CreatedAt:    day,
			},
			// The interactive account burns from both unioned ledgers.
			&ledgerdomain.ComputeDailyCharge{
				ID:           node.Generate(),
				AccountID:    interactive,
				ActivityDate: day,
				Charge:       40 + weekday*10,
				CoreHours:    40 + weekday*10,
				JobCount:     5 + int64(weekday),
				CreatedAt:    day,
			},
			&ledgerdomain.InteractiveDailyCharge{
				ID:           node.Generate(),
				AccountID:    interactive,
				ActivityDate: day,
				Charge:       25 + weekday*5,
				CoreHours:    25 + weekday*5,
				SessionCount: 3 + int64(weekday),
				CreatedAt:    day,
			},
			&ledgerdomain.DiskDailyCharge{
				ID:           node.Generate(),
				AccountID:    disk,
				ActivityDate: day,
				Charge:       150 + weekday,
				BytesStored:  (150 + int64(weekday)) << 30,
				FileCount:    90000 + int64(weekday)*500,
				CreatedAt:    day,
			},
		}
		for _, row := range rows {
			if err := tx.WithContext(ctx).Clauses(skipExisting).Create(row).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureAdjustmentTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, accountID snowflake.ID, amount float64, day time.Time, reason string) error {
	var adjustment adjustmentdomain.Adjustment
	err := tx.WithContext(ctx).Where("account_id = ? AND reason = ?", accountID, reason).First(&adjustment).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	adjustment = adjustmentdomain.Adjustment{
		ID:             node.Generate(),
		AccountID:      accountID,
		Amount:         amount,
		AdjustmentDate: day,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&adjustment).Error
}
