package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/internal/dates"
	"github.com/summitgrid/corebank/pkg/db/option"
	"github.com/summitgrid/corebank/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, allocation *domain.Allocation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO allocations (id, account_id, parent_id, amount, start_date, end_date, note, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		allocation.ID,
		allocation.AccountID,
		allocation.ParentID,
		allocation.Amount,
		allocation.StartDate,
		allocation.EndDate,
		allocation.Note,
		allocation.Metadata,
		allocation.CreatedAt,
		allocation.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Allocation, error) {
	var allocation domain.Allocation
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, parent_id, amount, start_date, end_date, note, metadata, created_at, updated_at
		 FROM allocations WHERE id = ?`,
		id,
	).Scan(&allocation).Error
	if err != nil {
		return nil, err
	}
	if allocation.ID == 0 {
		return nil, nil
	}
	return &allocation, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAllocationFilter, page pagination.Pagination) ([]*domain.Allocation, error) {
	var allocations []*domain.Allocation
	stmt := db.WithContext(ctx).Model(&domain.Allocation{})
	if filter.AccountID != 0 {
		stmt = stmt.Where("account_id = ?", filter.AccountID)
	}
	if filter.ActiveAt != nil {
		day := dates.Day(*filter.ActiveAt)
		stmt = stmt.Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", day, day)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repo) ListActiveByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, at time.Time) ([]*domain.Allocation, error) {
	day := dates.Day(at)
	var allocations []*domain.Allocation
	err := db.WithContext(ctx).Raw(
		`SELECT id, account_id, parent_id, amount, start_date, end_date, note, metadata, created_at, updated_at
		 FROM allocations
		 WHERE account_id = ?
		   AND start_date <= ?
		   AND (end_date IS NULL OR end_date >= ?)
		 ORDER BY start_date asc, id asc`,
		accountID,
		day,
		day,
	).Scan(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repo) ListByParentIDs(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]*domain.Allocation, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var allocations []*domain.Allocation
	err := db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("parent_id IN ?", parentIDs).
		Order("id asc").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}
