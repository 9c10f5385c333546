package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/internal/balance/domain"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/dates"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	usagedomain "github.com/summitgrid/corebank/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Allocations allocationdomain.Repository
	Usage       usagedomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	allocations allocationdomain.Repository
	usage       usagedomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("balance.service"),
		clock:       p.Clock,
		allocations: p.Allocations,
		usage:       p.Usage,
	}
}

// ComputeBalance derives one allocation's position as of an explicit
// instant. Usage is summed over [start_date, min(end_date, as_of)] with
// adjustments applied, so a balance asked for last Tuesday ignores
// everything posted since.
func (s *Service) ComputeBalance(ctx context.Context, query domain.BalanceQuery) (domain.AllocationBalance, error) {
	allocation, err := s.findAllocation(ctx, query.AllocationID)
	if err != nil {
		return domain.AllocationBalance{}, err
	}
	return s.balanceFor(ctx, *allocation, s.asOf(query.AsOf))
}

// ComputeRollup walks the allocation and every descendant reachable
// through parent links, summing their positions. Visited IDs are tracked
// so a corrupted parent chain cannot loop the traversal.
func (s *Service) ComputeRollup(ctx context.Context, query domain.RollupQuery) (domain.RollupBalance, error) {
	root, err := s.findAllocation(ctx, query.AllocationID)
	if err != nil {
		return domain.RollupBalance{}, err
	}
	asOf := s.asOf(query.AsOf)

	rollup := domain.RollupBalance{
		RootAllocationID: root.ID,
		AsOf:             asOf,
	}

	visited := map[snowflake.ID]bool{root.ID: true}
	frontier := []allocationdomain.Allocation{*root}
	for len(frontier) > 0 {
		for _, allocation := range frontier {
			balance, err := s.balanceFor(ctx, allocation, asOf)
			if err != nil {
				return domain.RollupBalance{}, err
			}
			rollup.Allocated += balance.Allocated
			rollup.Used += balance.Used
			rollup.AllocationCount++
			rollup.Balances = append(rollup.Balances, balance)
		}

		parentIDs := make([]snowflake.ID, 0, len(frontier))
		for _, allocation := range frontier {
			parentIDs = append(parentIDs, allocation.ID)
		}
		children, err := s.allocations.ListByParentIDs(ctx, s.db, parentIDs)
		if err != nil {
			return domain.RollupBalance{}, err
		}

		frontier = frontier[:0]
		for _, child := range children {
			if child == nil || visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			frontier = append(frontier, *child)
		}
	}

	rollup.Remaining = rollup.Allocated - rollup.Used
	rollup.PercentUsed = percentUsed(rollup.Allocated, rollup.Used)
	return rollup, nil
}

func (s *Service) balanceFor(ctx context.Context, allocation allocationdomain.Allocation, asOf time.Time) (domain.AllocationBalance, error) {
	balance := domain.AllocationBalance{
		AllocationID:      allocation.ID,
		AccountID:         allocation.AccountID,
		Allocated:         allocation.Amount,
		Remaining:         allocation.Amount,
		ChargesByCategory: map[ledgerdomain.Source]float64{},
		StartDate:         dates.Day(allocation.StartDate),
		EndDate:           allocation.EndDate,
		AsOf:              asOf,
	}

	window, started := allocation.Window(asOf)
	if !started {
		// Forward-dated grant: nothing can have been charged yet.
		return balance, nil
	}

	breakdown, err := s.usage.ComputeUsage(ctx, usagedomain.UsageQuery{
		AccountID:          allocation.AccountID.String(),
		StartDate:          window.Start,
		EndDate:            window.End,
		IncludeAdjustments: true,
	})
	if err != nil {
		return domain.AllocationBalance{}, err
	}

	balance.Used = breakdown.TotalCharges
	balance.Remaining = allocation.Amount - breakdown.TotalCharges
	balance.PercentUsed = percentUsed(allocation.Amount, breakdown.TotalCharges)
	balance.ChargesByCategory = breakdown.ChargesByCategory
	balance.AdjustmentsTotal = breakdown.AdjustmentsTotal
	return balance, nil
}

func (s *Service) findAllocation(ctx context.Context, id string) (*allocationdomain.Allocation, error) {
	allocationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || allocationID == 0 {
		return nil, allocationdomain.ErrInvalidID
	}
	allocation, err := s.allocations.FindByID(ctx, s.db, allocationID)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return nil, allocationdomain.ErrAllocationNotFound
	}
	return allocation, nil
}

func (s *Service) asOf(at time.Time) time.Time {
	if at.IsZero() {
		at = s.clock.Now()
	}
	return dates.Day(at.UTC())
}

// percentUsed leaves over-use visible: 150% means half again the grant.
// A non-positive grant cannot meaningfully express a percentage.
func percentUsed(allocated, used float64) float64 {
	if allocated <= 0 {
		return 0
	}
	return used / allocated * 100
}
