package promo

import (
	"github.com/smallbiznis/maidbook/internal/promo/repository"
	"github.com/smallbiznis/maidbook/internal/promo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("promo.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
