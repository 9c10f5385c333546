package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/registry/domain"
	"github.com/summitgrid/corebank/pkg/db/option"
	"github.com/summitgrid/corebank/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertProject(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (id, code, title, principal_name, active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Code,
		project.Title,
		project.PrincipalName,
		project.Active,
		project.Metadata,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) FindProjectByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, title, principal_name, active, metadata, created_at, updated_at
		 FROM projects WHERE id = ?`,
		id,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repo) FindProjectByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, title, principal_name, active, metadata, created_at, updated_at
		 FROM projects WHERE code = ?`,
		code,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repo) ListProjects(ctx context.Context, db *gorm.DB, filter domain.ListProjectFilter, page pagination.Pagination) ([]*domain.Project, error) {
	var projects []*domain.Project
	stmt := db.WithContext(ctx).Model(&domain.Project{})
	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) InsertResource(ctx context.Context, db *gorm.DB, resource *domain.Resource) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO resources (id, code, name, category, unit, active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resource.ID,
		resource.Code,
		resource.Name,
		resource.Category,
		resource.Unit,
		resource.Active,
		resource.Metadata,
		resource.CreatedAt,
		resource.UpdatedAt,
	).Error
}

func (r *repo) FindResourceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Resource, error) {
	var resource domain.Resource
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, category, unit, active, metadata, created_at, updated_at
		 FROM resources WHERE id = ?`,
		id,
	).Scan(&resource).Error
	if err != nil {
		return nil, err
	}
	if resource.ID == 0 {
		return nil, nil
	}
	return &resource, nil
}

func (r *repo) FindResourceByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Resource, error) {
	var resource domain.Resource
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, category, unit, active, metadata, created_at, updated_at
		 FROM resources WHERE code = ?`,
		code,
	).Scan(&resource).Error
	if err != nil {
		return nil, err
	}
	if resource.ID == 0 {
		return nil, nil
	}
	return &resource, nil
}

func (r *repo) ListResources(ctx context.Context, db *gorm.DB, filter domain.ListResourceFilter) ([]*domain.Resource, error) {
	var resources []*domain.Resource
	stmt := db.WithContext(ctx).Model(&domain.Resource{})
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	err := stmt.
		Order("code asc").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *repo) InsertAccount(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, code, project_id, resource_id, active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Code,
		account.ProjectID,
		account.ResourceID,
		account.Active,
		account.Metadata,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindAccountByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, project_id, resource_id, active, metadata, created_at, updated_at
		 FROM accounts WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindAccountByPair(ctx context.Context, db *gorm.DB, projectID, resourceID snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, project_id, resource_id, active, metadata, created_at, updated_at
		 FROM accounts WHERE project_id = ? AND resource_id = ?`,
		projectID,
		resourceID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindAccountDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AccountDetail, error) {
	var detail domain.AccountDetail
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.code, a.project_id, a.resource_id, a.active, a.metadata, a.created_at, a.updated_at,
		        p.code AS project_code, p.title AS project_title,
		        r.code AS resource_code, r.name AS resource_name,
		        r.category AS resource_category, r.unit AS resource_unit
		 FROM accounts a
		 JOIN projects p ON p.id = a.project_id
		 JOIN resources r ON r.id = a.resource_id
		 WHERE a.id = ?`,
		id,
	).Scan(&detail).Error
	if err != nil {
		return nil, err
	}
	if detail.ID == 0 {
		return nil, nil
	}
	return &detail, nil
}

func (r *repo) ListAccounts(ctx context.Context, db *gorm.DB, filter domain.ListAccountFilter, page pagination.Pagination) ([]*domain.Account, error) {
	var accounts []*domain.Account
	stmt := db.WithContext(ctx).Model(&domain.Account{})
	if filter.ProjectID != 0 {
		stmt = stmt.Where("project_id = ?", filter.ProjectID)
	}
	if filter.ResourceID != 0 {
		stmt = stmt.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) SetAccountActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts SET active = ?, updated_at = ? WHERE id = ?`,
		active,
		now,
		id,
	).Error
}
