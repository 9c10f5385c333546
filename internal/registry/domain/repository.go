package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertProject(ctx context.Context, db *gorm.DB, project *Project) error
	FindProjectByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	FindProjectByCode(ctx context.Context, db *gorm.DB, code string) (*Project, error)
	ListProjects(ctx context.Context, db *gorm.DB, filter ListProjectFilter, page pagination.Pagination) ([]*Project, error)

	InsertResource(ctx context.Context, db *gorm.DB, resource *Resource) error
	FindResourceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Resource, error)
	FindResourceByCode(ctx context.Context, db *gorm.DB, code string) (*Resource, error)
	ListResources(ctx context.Context, db *gorm.DB, filter ListResourceFilter) ([]*Resource, error)

	InsertAccount(ctx context.Context, db *gorm.DB, account *Account) error
	FindAccountByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindAccountByPair(ctx context.Context, db *gorm.DB, projectID, resourceID snowflake.ID) (*Account, error)
	FindAccountDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AccountDetail, error)
	ListAccounts(ctx context.Context, db *gorm.DB, filter ListAccountFilter, page pagination.Pagination) ([]*Account, error)
	SetAccountActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, now time.Time) error
}
