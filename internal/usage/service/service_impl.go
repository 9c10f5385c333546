package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/summitgrid/corebank/internal/adjustment/domain"
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/dates"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"github.com/summitgrid/corebank/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Registry    registrydomain.Repository
	Ledger      ledgerdomain.Reader
	Adjustments adjustmentdomain.Repository
	Thresholds  *config.ThresholdHolder `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	registry    registrydomain.Repository
	ledger      ledgerdomain.Reader
	adjustments adjustmentdomain.Repository
	thresholds  *config.ThresholdHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("usage.service"),
		registry:    p.Registry,
		ledger:      p.Ledger,
		adjustments: p.Adjustments,
		thresholds:  p.Thresholds,
	}
}

// ComputeUsage sums the routed daily ledgers for one account over an
// inclusive date range. It never writes and never caches: totals must
// reflect ledger rows ingested a moment ago.
func (s *Service) ComputeUsage(ctx context.Context, query domain.UsageQuery) (domain.Breakdown, error) {
	accountID, err := s.parseID(query.AccountID)
	if err != nil {
		return domain.Breakdown{}, err
	}

	window, ok := dates.Normalize(query.StartDate, query.EndDate)
	if !ok {
		return domain.Breakdown{}, domain.ErrInvalidDateRange
	}

	detail, category, err := s.resolveAccount(ctx, accountID, query.Category)
	if err != nil {
		return domain.Breakdown{}, err
	}

	sources, err := s.route(detail, category)
	if err != nil {
		return domain.Breakdown{}, err
	}

	breakdown := domain.Breakdown{
		AccountID:           accountID,
		Category:            category,
		StartDate:           window.Start,
		EndDate:             window.End,
		ChargesByCategory:   make(map[ledgerdomain.Source]float64, len(sources)),
		IncludesAdjustments: query.IncludeAdjustments,
	}

	for _, source := range sources {
		total, err := s.ledger.SumCharges(ctx, s.db, source, accountID, window)
		if err != nil {
			return domain.Breakdown{}, err
		}
		breakdown.ChargesByCategory[source] = total
		breakdown.TotalCharges += total
	}

	if query.IncludeAdjustments {
		adjusted, err := s.adjustments.SumForRange(ctx, s.db, accountID, window)
		if err != nil {
			return domain.Breakdown{}, err
		}
		breakdown.AdjustmentsTotal = adjusted
		breakdown.TotalCharges += adjusted
	}

	return breakdown, nil
}

// DailyTrend builds one entry per calendar day of the range, ascending,
// zero-filled, with every routed ledger present as a key on every day.
// Adjustments are deliberately absent: they carry no daily attribution.
func (s *Service) DailyTrend(ctx context.Context, query domain.TrendQuery) ([]domain.DailyUsage, error) {
	accountID, err := s.parseID(query.AccountID)
	if err != nil {
		return nil, err
	}

	window, ok := dates.Normalize(query.StartDate, query.EndDate)
	if !ok {
		return nil, domain.ErrInvalidDateRange
	}
	if max := s.maxWindowDays(); max > 0 && window.Days() > max {
		return nil, fmt.Errorf("window of %d days exceeds the %d day limit: %w",
			window.Days(), max, domain.ErrInvalidDateRange)
	}

	detail, category, err := s.resolveAccount(ctx, accountID, query.Category)
	if err != nil {
		return nil, err
	}

	sources, err := s.route(detail, category)
	if err != nil {
		return nil, err
	}

	// Additive merge: two ledgers posting the same day must stack, not
	// overwrite each other.
	perDay := make(map[string]map[ledgerdomain.Source]float64)
	for _, source := range sources {
		rows, err := s.ledger.ListDailyCharges(ctx, s.db, source, accountID, window)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			key := dates.Format(row.ActivityDate)
			if perDay[key] == nil {
				perDay[key] = make(map[ledgerdomain.Source]float64, len(sources))
			}
			perDay[key][source] += row.Charge
		}
	}

	series := make([]domain.DailyUsage, 0, window.Days())
	window.EachDay(func(day time.Time) {
		entry := domain.DailyUsage{
			Date:              day,
			ChargesByCategory: make(map[ledgerdomain.Source]float64, len(sources)),
		}
		charges := perDay[dates.Format(day)]
		for _, source := range sources {
			value := charges[source]
			entry.ChargesByCategory[source] = value
			entry.TotalCharges += value
		}
		series = append(series, entry)
	})

	return series, nil
}

// resolveAccount loads the account detail and decides the query category:
// the caller's when supplied, otherwise the account's resource category.
func (s *Service) resolveAccount(ctx context.Context, accountID snowflake.ID, category string) (*registrydomain.AccountDetail, registrydomain.ResourceCategory, error) {
	detail, err := s.registry.FindAccountDetail(ctx, s.db, accountID)
	if err != nil {
		return nil, "", err
	}
	if detail == nil {
		return nil, "", registrydomain.ErrAccountNotFound
	}

	if trimmed := strings.TrimSpace(category); trimmed != "" {
		return detail, registrydomain.ResourceCategory(strings.ToLower(trimmed)), nil
	}
	return detail, detail.ResourceCategory, nil
}

func (s *Service) route(detail *registrydomain.AccountDetail, category registrydomain.ResourceCategory) ([]ledgerdomain.Source, error) {
	sources, err := ledgerdomain.Route(category)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", detail.ResourceCode, err)
	}
	return sources, nil
}

func (s *Service) maxWindowDays() int {
	if s.thresholds == nil {
		return 0
	}
	return s.thresholds.Get().Trend.MaxWindowDays
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
