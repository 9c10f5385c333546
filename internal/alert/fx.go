package alert

import (
	"github.com/summitgrid/corebank/internal/alert/repository"
	"github.com/summitgrid/corebank/internal/alert/service"
	"go.uber.org/fx"
)

var Module = fx.Module("alert.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
