package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/dates"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
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
	Registry registrydomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	registry registrydomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("allocation.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAllocationRequest) (domain.Allocation, error) {
	accountID, err := s.parseID(req.AccountID)
	if err != nil {
		return domain.Allocation{}, err
	}

	if req.Amount <= 0 {
		return domain.Allocation{}, domain.ErrInvalidAmount
	}

	if req.StartDate.IsZero() {
		return domain.Allocation{}, domain.ErrInvalidWindow
	}
	start := dates.Day(req.StartDate)
	var end *time.Time
	if req.EndDate != nil {
		e := dates.Day(*req.EndDate)
		if e.Before(start) {
			return domain.Allocation{}, domain.ErrInvalidWindow
		}
		end = &e
	}

	account, err := s.registry.FindAccountByID(ctx, s.db, accountID)
	if err != nil {
		return domain.Allocation{}, err
	}
	if account == nil {
		return domain.Allocation{}, registrydomain.ErrAccountNotFound
	}
	if !account.Active {
		return domain.Allocation{}, registrydomain.ErrAccountInactive
	}

	var parentID *snowflake.ID
	if strings.TrimSpace(req.ParentID) != "" {
		pid, err := s.parseID(req.ParentID)
		if err != nil {
			return domain.Allocation{}, err
		}
		parent, err := s.repo.FindByID(ctx, s.db, pid)
		if err != nil {
			return domain.Allocation{}, err
		}
		if parent == nil {
			return domain.Allocation{}, domain.ErrParentNotFound
		}
		parentID = &pid
	}

	now := s.clock.Now().UTC()
	allocation := domain.Allocation{
		ID:        s.genID.Generate(),
		AccountID: accountID,
		ParentID:  parentID,
		Amount:    req.Amount,
		StartDate: start,
		EndDate:   end,
		Note:      strings.TrimSpace(req.Note),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &allocation); err != nil {
		return domain.Allocation{}, err
	}

	s.log.Info("allocation created",
		zap.String("allocation_id", allocation.ID.String()),
		zap.String("account_id", allocation.AccountID.String()),
		zap.Float64("amount", allocation.Amount),
		zap.String("start_date", dates.Format(allocation.StartDate)),
	)
	return allocation, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetAllocationRequest) (domain.Allocation, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Allocation{}, err
	}

	allocation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Allocation{}, err
	}
	if allocation == nil {
		return domain.Allocation{}, domain.ErrAllocationNotFound
	}
	return *allocation, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAllocationsRequest) (domain.ListAllocationsResponse, error) {
	filter := domain.ListAllocationFilter{ActiveAt: req.ActiveAt}
	if strings.TrimSpace(req.AccountID) != "" {
		accountID, err := s.parseID(req.AccountID)
		if err != nil {
			return domain.ListAllocationsResponse{}, err
		}
		filter.AccountID = int64(accountID)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListAllocationsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(allocation *domain.Allocation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        allocation.ID.String(),
			CreatedAt: allocation.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	allocations := make([]domain.Allocation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		allocations = append(allocations, *item)
	}

	resp := domain.ListAllocationsResponse{Allocations: allocations}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListActive(ctx context.Context, req domain.ListActiveRequest) ([]domain.Allocation, error) {
	accountID, err := s.parseID(req.AccountID)
	if err != nil {
		return nil, err
	}

	account, err := s.registry.FindAccountByID(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, registrydomain.ErrAccountNotFound
	}

	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	items, err := s.repo.ListActiveByAccount(ctx, s.db, accountID, at)
	if err != nil {
		return nil, err
	}

	allocations := make([]domain.Allocation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		allocations = append(allocations, *item)
	}
	return allocations, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
