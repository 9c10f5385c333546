package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/registry/domain"
	"github.com/summitgrid/corebank/pkg/db"
	"github.com/summitgrid/corebank/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Resolver domain.ResolverInvalidator `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	resolver domain.ResolverInvalidator
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("registry.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		resolver: p.Resolver,
	}
}

func (s *Service) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	code := slug.Make(req.Code)
	if code == "" {
		return domain.Project{}, domain.ErrInvalidCode
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Project{}, domain.ErrInvalidTitle
	}

	existing, err := s.repo.FindProjectByCode(ctx, s.db, code)
	if err != nil {
		return domain.Project{}, err
	}
	if existing != nil {
		return domain.Project{}, domain.ErrDuplicateProject
	}

	now := s.clock.Now().UTC()
	project := domain.Project{
		ID:            s.genID.Generate(),
		Code:          code,
		Title:         title,
		PrincipalName: strings.TrimSpace(req.PrincipalName),
		Active:        true,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.InsertProject(ctx, s.db, &project); err != nil {
		// The existence check above races with concurrent creates; the
		// unique index on code is the authority.
		if db.IsDuplicateKeyErr(err) {
			return domain.Project{}, domain.ErrDuplicateProject
		}
		return domain.Project{}, err
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("code", project.Code),
	)
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, req domain.GetProjectRequest) (domain.Project, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	project, err := s.repo.FindProjectByID(ctx, s.db, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return *project, nil
}

func (s *Service) ListProjects(ctx context.Context, req domain.ListProjectsRequest) (domain.ListProjectsResponse, error) {
	filter := domain.ListProjectFilter{
		Code:   slug.Make(req.Code),
		Active: req.Active,
	}
	if strings.TrimSpace(req.Code) == "" {
		filter.Code = ""
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListProjects(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListProjectsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(project *domain.Project) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        project.ID.String(),
			CreatedAt: project.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}

	resp := domain.ListProjectsResponse{Projects: projects}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) CreateResource(ctx context.Context, req domain.CreateResourceRequest) (domain.Resource, error) {
	code := slug.Make(req.Code)
	if code == "" {
		return domain.Resource{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Resource{}, domain.ErrInvalidName
	}
	category, ok := domain.ParseResourceCategory(req.Category)
	if !ok {
		return domain.Resource{}, domain.ErrInvalidCategory
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		return domain.Resource{}, domain.ErrInvalidUnit
	}

	existing, err := s.repo.FindResourceByCode(ctx, s.db, code)
	if err != nil {
		return domain.Resource{}, err
	}
	if existing != nil {
		return domain.Resource{}, domain.ErrDuplicateResource
	}

	now := s.clock.Now().UTC()
	resource := domain.Resource{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Category:  category,
		Unit:      unit,
		Active:    true,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertResource(ctx, s.db, &resource); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Resource{}, domain.ErrDuplicateResource
		}
		return domain.Resource{}, err
	}

	s.log.Info("resource created",
		zap.String("resource_id", resource.ID.String()),
		zap.String("code", resource.Code),
		zap.String("category", resource.Category.String()),
	)
	return resource, nil
}

func (s *Service) ListResources(ctx context.Context, req domain.ListResourcesRequest) ([]domain.Resource, error) {
	filter := domain.ListResourceFilter{Active: req.Active}
	if trimmed := strings.TrimSpace(req.Category); trimmed != "" {
		category, ok := domain.ParseResourceCategory(trimmed)
		if !ok {
			return nil, domain.ErrInvalidCategory
		}
		filter.Category = category
	}

	items, err := s.repo.ListResources(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resources := make([]domain.Resource, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		resources = append(resources, *item)
	}
	return resources, nil
}

func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	projectID, err := s.parseID(req.ProjectID)
	if err != nil {
		return domain.Account{}, err
	}
	resourceID, err := s.parseID(req.ResourceID)
	if err != nil {
		return domain.Account{}, err
	}

	project, err := s.repo.FindProjectByID(ctx, s.db, projectID)
	if err != nil {
		return domain.Account{}, err
	}
	if project == nil {
		return domain.Account{}, domain.ErrProjectNotFound
	}
	if !project.Active {
		return domain.Account{}, domain.ErrProjectInactive
	}

	resource, err := s.repo.FindResourceByID(ctx, s.db, resourceID)
	if err != nil {
		return domain.Account{}, err
	}
	if resource == nil {
		return domain.Account{}, domain.ErrResourceNotFound
	}
	if !resource.Active {
		return domain.Account{}, domain.ErrResourceInactive
	}

	existing, err := s.repo.FindAccountByPair(ctx, s.db, projectID, resourceID)
	if err != nil {
		return domain.Account{}, err
	}
	if existing != nil {
		return domain.Account{}, domain.ErrDuplicateAccount
	}

	now := s.clock.Now().UTC()
	account := domain.Account{
		ID:         s.genID.Generate(),
		Code:       project.Code + "-" + resource.Code,
		ProjectID:  projectID,
		ResourceID: resourceID,
		Active:     true,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertAccount(ctx, s.db, &account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Account{}, domain.ErrDuplicateAccount
		}
		return domain.Account{}, err
	}
	s.invalidate(account.ID)

	s.log.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("account_code", account.Code),
	)
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, req domain.GetAccountRequest) (domain.AccountDetail, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.AccountDetail{}, err
	}

	detail, err := s.repo.FindAccountDetail(ctx, s.db, id)
	if err != nil {
		return domain.AccountDetail{}, err
	}
	if detail == nil {
		return domain.AccountDetail{}, domain.ErrAccountNotFound
	}
	return *detail, nil
}

func (s *Service) ListAccounts(ctx context.Context, req domain.ListAccountsRequest) (domain.ListAccountsResponse, error) {
	filter := domain.ListAccountFilter{Active: req.Active}
	if strings.TrimSpace(req.ProjectID) != "" {
		projectID, err := s.parseID(req.ProjectID)
		if err != nil {
			return domain.ListAccountsResponse{}, err
		}
		filter.ProjectID = projectID
	}
	if strings.TrimSpace(req.ResourceID) != "" {
		resourceID, err := s.parseID(req.ResourceID)
		if err != nil {
			return domain.ListAccountsResponse{}, err
		}
		filter.ResourceID = resourceID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListAccounts(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListAccountsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(account *domain.Account) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        account.ID.String(),
			CreatedAt: account.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}

	resp := domain.ListAccountsResponse{Accounts: accounts}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) DeactivateAccount(ctx context.Context, req domain.DeactivateAccountRequest) (domain.Account, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.FindAccountByID(ctx, s.db, id)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	now := s.clock.Now().UTC()
	if err := s.repo.SetAccountActive(ctx, s.db, id, false, now); err != nil {
		return domain.Account{}, err
	}
	account.Active = false
	account.UpdatedAt = now
	s.invalidate(account.ID)

	s.log.Info("account deactivated",
		zap.String("account_id", account.ID.String()),
		zap.String("account_code", account.Code),
	)
	return *account, nil
}

func (s *Service) invalidate(id snowflake.ID) {
	if s.resolver == nil {
		return
	}
	s.resolver.InvalidateAccount(id)
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
