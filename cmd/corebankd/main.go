package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/summitgrid/corebank/internal/clock"
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/migration"
	"github.com/summitgrid/corebank/internal/observability"
	"github.com/summitgrid/corebank/internal/scheduler"
	"github.com/summitgrid/corebank/internal/server"
	"github.com/summitgrid/corebank/pkg/db"
	"go.uber.org/fx"
)

// corebankd is the single-process deployment: it migrates the schema,
// serves the accounting API and runs the background scans in one binary.
// Sites that split the surfaces run apps/api and apps/scheduler instead.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		server.Module,
		scheduler.Module,
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
