package cache

import (
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("cache",
	fx.Provide(NewAccountResolverCache),
	fx.Provide(func(c AccountResolverCache) registrydomain.ResolverInvalidator { return c }),
)
