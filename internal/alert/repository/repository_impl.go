package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/alert/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOnce(ctx context.Context, db *gorm.DB, alert *domain.AllocationAlert) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO allocation_alerts (id, allocation_id, account_id, threshold_percent, percent_used, state, triggered_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (allocation_id, threshold_percent) DO NOTHING`,
		alert.ID,
		alert.AllocationID,
		alert.AccountID,
		alert.ThresholdPercent,
		alert.PercentUsed,
		alert.State,
		alert.TriggeredAt,
		alert.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByAllocation(ctx context.Context, db *gorm.DB, allocationID snowflake.ID) ([]*domain.AllocationAlert, error) {
	var alerts []*domain.AllocationAlert
	err := db.WithContext(ctx).Raw(
		`SELECT id, allocation_id, account_id, threshold_percent, percent_used, state, triggered_at, created_at
		 FROM allocation_alerts WHERE allocation_id = ?
		 ORDER BY threshold_percent asc`,
		allocationID,
	).Scan(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]*domain.AllocationAlert, error) {
	var alerts []*domain.AllocationAlert
	err := db.WithContext(ctx).Raw(
		`SELECT id, allocation_id, account_id, threshold_percent, percent_used, state, triggered_at, created_at
		 FROM allocation_alerts WHERE account_id = ?
		 ORDER BY triggered_at desc, id desc`,
		accountID,
	).Scan(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}
