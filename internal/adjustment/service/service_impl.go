package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/adjustment/domain"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/dates"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	usagedomain "github.com/summitgrid/corebank/internal/usage/domain"
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
		log:      p.Log.Named("adjustment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAdjustmentRequest) (domain.Adjustment, error) {
	accountID, err := s.parseID(req.AccountID)
	if err != nil {
		return domain.Adjustment{}, err
	}

	if req.Amount == 0 {
		return domain.Adjustment{}, domain.ErrInvalidAmount
	}
	if req.AdjustmentDate.IsZero() {
		return domain.Adjustment{}, domain.ErrInvalidDate
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Adjustment{}, domain.ErrEmptyReason
	}

	account, err := s.registry.FindAccountByID(ctx, s.db, accountID)
	if err != nil {
		return domain.Adjustment{}, err
	}
	if account == nil {
		return domain.Adjustment{}, registrydomain.ErrAccountNotFound
	}
	if !account.Active {
		return domain.Adjustment{}, registrydomain.ErrAccountInactive
	}

	now := s.clock.Now().UTC()
	adjustment := domain.Adjustment{
		ID:             s.genID.Generate(),
		AccountID:      accountID,
		Amount:         req.Amount,
		AdjustmentDate: dates.Day(req.AdjustmentDate),
		Reason:         reason,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &adjustment); err != nil {
		return domain.Adjustment{}, err
	}

	s.log.Info("adjustment posted",
		zap.String("adjustment_id", adjustment.ID.String()),
		zap.String("account_id", adjustment.AccountID.String()),
		zap.Float64("amount", adjustment.Amount),
		zap.String("adjustment_date", dates.Format(adjustment.AdjustmentDate)),
	)
	return adjustment, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAdjustmentsRequest) ([]domain.Adjustment, error) {
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

	var window *dates.Range
	if req.StartDate != nil || req.EndDate != nil {
		if req.StartDate == nil || req.EndDate == nil {
			return nil, usagedomain.ErrInvalidDateRange
		}
		r, ok := dates.Normalize(*req.StartDate, *req.EndDate)
		if !ok {
			return nil, usagedomain.ErrInvalidDateRange
		}
		window = &r
	}

	items, err := s.repo.ListByAccount(ctx, s.db, accountID, window)
	if err != nil {
		return nil, err
	}

	adjustments := make([]domain.Adjustment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		adjustments = append(adjustments, *item)
	}
	return adjustments, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
