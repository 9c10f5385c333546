package registry

import (
	"github.com/summitgrid/corebank/internal/registry/repository"
	"github.com/summitgrid/corebank/internal/registry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("registry.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
