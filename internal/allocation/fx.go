package allocation

import (
	"github.com/summitgrid/corebank/internal/allocation/repository"
	"github.com/summitgrid/corebank/internal/allocation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("allocation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
