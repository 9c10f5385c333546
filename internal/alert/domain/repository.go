package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertOnce records the alert unless one already exists for the same
	// allocation and threshold. It reports whether a row was written.
	InsertOnce(ctx context.Context, db *gorm.DB, alert *AllocationAlert) (bool, error)
	ListByAllocation(ctx context.Context, db *gorm.DB, allocationID snowflake.ID) ([]*AllocationAlert, error)
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]*AllocationAlert, error)
}
