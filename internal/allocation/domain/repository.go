package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, allocation *Allocation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Allocation, error)
	List(ctx context.Context, db *gorm.DB, filter ListAllocationFilter, page pagination.Pagination) ([]*Allocation, error)
	ListActiveByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, at time.Time) ([]*Allocation, error)
	ListByParentIDs(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]*Allocation, error)
}
