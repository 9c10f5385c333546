package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/adjustment"
	"github.com/summitgrid/corebank/internal/alert"
	"github.com/summitgrid/corebank/internal/allocation"
	"github.com/summitgrid/corebank/internal/balance"
	"github.com/summitgrid/corebank/internal/cache"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/ledger"
	"github.com/summitgrid/corebank/internal/observability"
	"github.com/summitgrid/corebank/internal/ratelimit"
	"github.com/summitgrid/corebank/internal/registry"
	"github.com/summitgrid/corebank/internal/server"
	"github.com/summitgrid/corebank/internal/usage"
	"github.com/summitgrid/corebank/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Core dependencies for the query API
		registry.Module,
		allocation.Module,
		ledger.Module,
		adjustment.Module,
		usage.Module,
		balance.Module,
		alert.Module,
		cache.Module,
		ratelimit.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
