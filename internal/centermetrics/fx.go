package centermetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("center.metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(func(registry *prometheus.Registry, clk clock.Clock, cfg config.Config) *Collector {
		return NewCollector(registry, clk, cfg.Site.ID, cfg.Site.Name)
	}),
	fx.Provide(NewPusher),
	fx.Provide(NewRunner),
)
