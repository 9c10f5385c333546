package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/dates"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, adjustment *Adjustment) error
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, window *dates.Range) ([]*Adjustment, error)
	SumForRange(ctx context.Context, db *gorm.DB, accountID snowflake.ID, window dates.Range) (float64, error)
}
