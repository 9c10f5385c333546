package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/dates"
	"gorm.io/gorm"
)

// Reader is the uniform accessor over the four daily charge ledgers.
// Sources come from Route; the engine never writes these tables.
type Reader interface {
	SumCharges(ctx context.Context, db *gorm.DB, source Source, accountID snowflake.ID, window dates.Range) (float64, error)
	ListDailyCharges(ctx context.Context, db *gorm.DB, source Source, accountID snowflake.ID, window dates.Range) ([]DailyCharge, error)
}
