package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/adjustment/domain"
	"github.com/summitgrid/corebank/internal/dates"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, adjustment *domain.Adjustment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO adjustments (id, account_id, amount, adjustment_date, reason, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		adjustment.ID,
		adjustment.AccountID,
		adjustment.Amount,
		adjustment.AdjustmentDate,
		adjustment.Reason,
		adjustment.Metadata,
		adjustment.CreatedAt,
	).Error
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, window *dates.Range) ([]*domain.Adjustment, error) {
	var adjustments []*domain.Adjustment
	stmt := db.WithContext(ctx).
		Model(&domain.Adjustment{}).
		Where("account_id = ?", accountID)
	if window != nil {
		stmt = stmt.Where("adjustment_date BETWEEN ? AND ?", window.Start, window.End)
	}
	err := stmt.
		Order("adjustment_date asc, id asc").
		Find(&adjustments).Error
	if err != nil {
		return nil, err
	}
	return adjustments, nil
}

func (r *repo) SumForRange(ctx context.Context, db *gorm.DB, accountID snowflake.ID, window dates.Range) (float64, error) {
	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) FROM adjustments
		 WHERE account_id = ? AND adjustment_date BETWEEN ? AND ?`,
		accountID,
		window.Start,
		window.End,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
