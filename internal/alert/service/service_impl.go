package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/alert/domain"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/dates"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("alert.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) RecordCrossing(ctx context.Context, req domain.RecordCrossingRequest) (bool, error) {
	if req.AllocationID == 0 || req.AccountID == 0 {
		return false, domain.ErrInvalidID
	}
	if req.ThresholdPercent <= 0 {
		return false, domain.ErrInvalidThreshold
	}
	if req.State != domain.StateWarning && req.State != domain.StateCritical {
		return false, domain.ErrInvalidState
	}

	at := req.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	alert := domain.AllocationAlert{
		ID:               s.genID.Generate(),
		AllocationID:     req.AllocationID,
		AccountID:        req.AccountID,
		ThresholdPercent: req.ThresholdPercent,
		PercentUsed:      req.PercentUsed,
		State:            req.State,
		TriggeredAt:      at.UTC(),
		CreatedAt:        s.clock.Now().UTC(),
	}

	created, err := s.repo.InsertOnce(ctx, s.db, &alert)
	if err != nil {
		return false, err
	}
	if created {
		s.log.Warn("allocation threshold crossed",
			zap.String("allocation_id", alert.AllocationID.String()),
			zap.String("account_id", alert.AccountID.String()),
			zap.Float64("threshold_percent", alert.ThresholdPercent),
			zap.Float64("percent_used", alert.PercentUsed),
			zap.String("state", string(alert.State)),
			zap.String("triggered_on", dates.Format(alert.TriggeredAt)),
		)
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAlertsRequest) ([]domain.AllocationAlert, error) {
	var (
		items []*domain.AllocationAlert
		err   error
	)
	switch {
	case strings.TrimSpace(req.AllocationID) != "":
		id, parseErr := s.parseID(req.AllocationID)
		if parseErr != nil {
			return nil, parseErr
		}
		items, err = s.repo.ListByAllocation(ctx, s.db, id)
	case strings.TrimSpace(req.AccountID) != "":
		id, parseErr := s.parseID(req.AccountID)
		if parseErr != nil {
			return nil, parseErr
		}
		items, err = s.repo.ListByAccount(ctx, s.db, id)
	default:
		return nil, domain.ErrInvalidID
	}
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.AllocationAlert, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		alerts = append(alerts, *item)
	}
	return alerts, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
