// Package centermetrics publishes site-wide accounting gauges to the
// computing center's monitoring federation. Everything lives on a private
// registry so the push never mixes with the process /metrics endpoint.
package centermetrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/dates"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	"gorm.io/gorm"
)

// Collector owns the site gauges. Counts come from Refresh; the scan
// gauges are fed by the scheduler, which already walks every active
// allocation.
type Collector struct {
	registry *prometheus.Registry
	clock    clock.Clock

	siteInfo          *prometheus.GaugeVec
	projects          prometheus.Gauge
	accounts          prometheus.Gauge
	activeAllocations prometheus.Gauge
	overAllocated     prometheus.Gauge
	dailyCharges      *prometheus.GaugeVec
}

func NewCollector(registry *prometheus.Registry, clk clock.Clock, siteID, siteName string) *Collector {
	c := &Collector{
		registry: registry,
		clock:    clk,
		siteInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "corebank_site_info",
			Help: "Static site identity labels, always 1.",
		}, []string{"site_id", "site_name"}),
		projects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corebank_site_projects",
			Help: "Registered projects.",
		}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corebank_site_accounts",
			Help: "Active accounts.",
		}),
		activeAllocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corebank_site_active_allocations",
			Help: "Allocations whose validity window covers the scan day.",
		}),
		overAllocated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "corebank_site_overallocated_allocations",
			Help: "Active allocations with negative remaining balance.",
		}),
		dailyCharges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "corebank_site_daily_charges",
			Help: "Charges posted for the current UTC day, by ledger.",
		}, []string{"category"}),
	}

	registry.MustRegister(c.siteInfo, c.projects, c.accounts, c.activeAllocations, c.overAllocated, c.dailyCharges)
	c.siteInfo.WithLabelValues(siteID, siteName).Set(1)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Refresh recomputes the cheap aggregate gauges straight from the
// database. The per-allocation gauges are left to SetScanResults.
func (c *Collector) Refresh(ctx context.Context, db *gorm.DB) error {
	var projects int64
	if err := db.WithContext(ctx).Table("projects").Where("active = ?", true).Count(&projects).Error; err != nil {
		return fmt.Errorf("count projects: %w", err)
	}
	c.projects.Set(float64(projects))

	var accounts int64
	if err := db.WithContext(ctx).Table("accounts").Where("active = ?", true).Count(&accounts).Error; err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	c.accounts.Set(float64(accounts))

	today := dates.Day(c.clock.Now())
	for source, table := range map[ledgerdomain.Source]string{
		ledgerdomain.SourceCompute:     "compute_daily_charges",
		ledgerdomain.SourceInteractive: "interactive_daily_charges",
		ledgerdomain.SourceDisk:        "disk_daily_charges",
		ledgerdomain.SourceArchive:     "archive_daily_charges",
	} {
		var total float64
		err := db.WithContext(ctx).Raw(
			fmt.Sprintf(`SELECT COALESCE(SUM(charge), 0) FROM %s WHERE activity_date = ?`, table),
			today,
		).Scan(&total).Error
		if err != nil {
			return fmt.Errorf("sum %s: %w", table, err)
		}
		c.dailyCharges.WithLabelValues(string(source)).Set(total)
	}
	return nil
}

// SetScanResults records what the last threshold scan saw.
func (c *Collector) SetScanResults(active, overAllocated int) {
	c.activeAllocations.Set(float64(active))
	c.overAllocated.Set(float64(overAllocated))
}
