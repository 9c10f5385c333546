package adjustment

import (
	"github.com/summitgrid/corebank/internal/adjustment/repository"
	"github.com/summitgrid/corebank/internal/adjustment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjustment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
